// Package aws backs eventgate with AWS SNS/SQS: each event type maps onto an
// SNS topic, and subscriptions drain an SQS queue named after the topic. A
// custom endpoint (EVENTGATE_AWS_ENDPOINT) switches the whole transport to a
// LocalStack-style stack for local development.
package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	amazonsqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	"github.com/pageloom/eventgate/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "aws"

// LocalStack accepts any 12-digit account ID; this is its conventional one.
const (
	localstackAccountID = "000000000000"
	awsAccountIDLength  = 12
)

// Factory variables for test overrides.
var (
	DefaultConfigLoader  = awsconfig.LoadDefaultConfig
	TopicResolverFactory = sns.NewGenerateArnTopicResolver

	PublisherFactory = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return sns.NewPublisher(cfg, logger)
	}
	SubscriberFactory = func(cfg sns.SubscriberConfig, sqsCfg sqs.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return sns.NewSubscriber(cfg, sqsCfg, logger)
	}
)

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.AWSCapabilities)
}

// Build creates an SNS publisher and an SNS-over-SQS subscriber sharing one
// loaded AWS config.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg, logger)
	if err != nil {
		return transport.Transport{}, err
	}
	logger.Info("Loaded AWS config", watermill.LogFields{
		"region":          awsCfg.Region,
		"custom_endpoint": hasCustomEndpoint(awsCfg),
	})

	publisher, err := buildPublisher(cfg, awsCfg, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := buildSubscriber(cfg, awsCfg, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	return transport.Transport{Publisher: publisher, Subscriber: subscriber}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.AWSCapabilities
}

// loadAWSConfig loads the SDK default config chain, overlaying region and
// static credentials from the eventgate config when present. The explicit
// region wins even if the loader resolves one from the environment.
func loadAWSConfig(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (*aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	var region string

	if cfg != nil {
		region = cfg.GetAWSRegion()
		if region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		if key, secret := cfg.GetAWSAccessKeyID(), cfg.GetAWSSecretAccessKey(); key != "" && secret != "" {
			logger.Info("Using static AWS credentials", nil)
			opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentials(key, secret)))
		}
	}

	awsCfg, err := DefaultConfigLoader(ctx, opts...)
	if err != nil {
		logger.Error("Failed to load AWS config", err, watermill.LogFields{"requested_region": region})
		return nil, err
	}
	if region != "" {
		awsCfg.Region = region
	}
	return &awsCfg, nil
}

func buildPublisher(cfg transport.Config, awsCfg *aws.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	accountID, region := resolveAccountAndRegion(cfg, logger, awsCfg.Region)

	topicResolver, err := TopicResolverFactory(accountID, region)
	if err != nil {
		logger.Error("Failed to create SNS topic resolver", err, watermill.LogFields{
			"account_id": accountID,
			"region":     region,
		})
		return nil, err
	}

	publisherConfig := sns.PublisherConfig{
		TopicResolver: topicResolver,
		AWSConfig:     *awsCfg,
		Marshaler:     sns.DefaultMarshalerUnmarshaler{},
	}

	endpoint, err := awsEndpointURL(cfg)
	if err != nil {
		logger.Error("Failed to parse AWS endpoint", err, watermill.LogFields{"endpoint": cfg.GetAWSEndpoint()})
		return nil, err
	}
	if endpoint != nil {
		base := endpoint.String()
		publisherConfig.OptFns = []func(*amazonsns.Options){
			func(o *amazonsns.Options) { o.BaseEndpoint = aws.String(base) },
		}
	}

	return PublisherFactory(publisherConfig, logger)
}

func buildSubscriber(cfg transport.Config, awsCfg *aws.Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	accountID, region := resolveAccountAndRegion(cfg, logger, awsCfg.Region)

	topicResolver, err := TopicResolverFactory(accountID, region)
	if err != nil {
		logger.Error("Failed to create SNS topic resolver", err, watermill.LogFields{
			"account_id": accountID,
			"region":     region,
		})
		return nil, err
	}

	snsOpts, sqsOpts, err := endpointOverrides(awsCfg)
	if err != nil {
		return nil, err
	}

	return SubscriberFactory(
		sns.SubscriberConfig{
			AWSConfig:     *awsCfg,
			OptFns:        snsOpts,
			TopicResolver: topicResolver,
			// The SQS queue carries the bare topic name, so one event type
			// reads and writes under the same identifier everywhere.
			GenerateSqsQueueName: func(ctx context.Context, snsTopic sns.TopicArn) (string, error) {
				topic, err := sns.ExtractTopicNameFromTopicArn(snsTopic)
				if err != nil {
					return "", err
				}
				return string(topic), nil
			},
		},
		sqs.SubscriberConfig{
			AWSConfig: *awsCfg,
			OptFns:    sqsOpts,
		},
		logger,
	)
}

// endpointOverrides points both service clients at the config's BaseEndpoint
// when one is set. Nil slices leave the SDK's own resolution untouched.
func endpointOverrides(awsCfg *aws.Config) ([]func(*amazonsns.Options), []func(*amazonsqs.Options), error) {
	if !hasCustomEndpoint(awsCfg) {
		return nil, nil, nil
	}

	parsed, err := url.Parse(*awsCfg.BaseEndpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("parse AWS base endpoint: %w", err)
	}

	snsOpts := []func(*amazonsns.Options){
		amazonsns.WithEndpointResolverV2(sns.OverrideEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{URI: *parsed},
		}),
	}
	sqsOpts := []func(*amazonsqs.Options){
		amazonsqs.WithEndpointResolverV2(sqs.OverrideEndpointResolver{
			Endpoint: smithyendpoints.Endpoint{URI: *parsed},
		}),
	}
	return snsOpts, sqsOpts, nil
}

// resolveAccountAndRegion picks the account ID and region for topic ARN
// construction. A missing or malformed account ID is tolerated only against
// a custom endpoint, where the LocalStack default keeps the ARNs well-formed.
func resolveAccountAndRegion(cfg transport.Config, logger watermill.LoggerAdapter, fallbackRegion string) (string, string) {
	if cfg == nil {
		return "", fallbackRegion
	}

	accountID := strings.Trim(cfg.GetAWSAccountID(), "\"' ")
	region := cfg.GetAWSRegion()
	if region == "" {
		region = fallbackRegion
	}

	if cfg.GetAWSEndpoint() != "" {
		switch {
		case accountID == "":
			logger.Info("AWS account ID empty; using LocalStack default", watermill.LogFields{"account_id": localstackAccountID})
			accountID = localstackAccountID
		case len(accountID) != awsAccountIDLength:
			logger.Info("Malformed AWS account ID; using LocalStack default", watermill.LogFields{"account_id": accountID})
			accountID = localstackAccountID
		}
	}

	return accountID, region
}

// awsEndpointURL parses the configured custom endpoint; nil means the SDK's
// default endpoints apply.
func awsEndpointURL(cfg transport.Config) (*url.URL, error) {
	if cfg == nil || cfg.GetAWSEndpoint() == "" {
		return nil, nil
	}

	parsed, err := url.Parse(cfg.GetAWSEndpoint())
	if err != nil {
		return nil, fmt.Errorf("parse AWS endpoint: %w", err)
	}
	return parsed, nil
}

func hasCustomEndpoint(cfg *aws.Config) bool {
	return cfg != nil && cfg.BaseEndpoint != nil && *cfg.BaseEndpoint != ""
}

func staticCredentials(accessKeyID, secretAccessKey string) aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
		}, nil
	})
}
