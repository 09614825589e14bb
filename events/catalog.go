package events

import (
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pageloom/eventgate/internal/gate/catalog"
	"github.com/pageloom/eventgate/internal/gate/registry"
	"github.com/pageloom/eventgate/internal/gate/schema"
)

var (
	healthCheckSchema      = schema.MustJSON(SystemHealthCheck, checkHealthCheck)
	errorReportedSchema    = schema.MustProto[*structpb.Struct](SystemErrorReported, checkErrorReported)
	themeChangedSchema     = schema.MustJSON(UIThemeChanged, checkThemeChanged)
	componentMountedSchema = schema.MustJSON(UIComponentMounted, checkComponentMounted)
	modalOpenedSchema      = schema.MustJSON(UIModalOpened, checkModalOpened)
	widgetAddedSchema      = schema.MustJSON(DashboardWidgetAdded, checkWidgetAdded)
	filterAppliedSchema    = schema.MustJSON(DashboardFilterApplied, checkFilterApplied)
	listingPublishedSchema = schema.MustJSON(MarketplaceListingPublished, checkListingPublished)
	orderPlacedSchema      = schema.MustJSON(MarketplaceOrderPlaced, checkOrderPlaced)
	signedInSchema         = schema.MustJSON(AccountSignedIn, checkSignedIn)
	signedOutSchema        = schema.MustJSON(AccountSignedOut, checkSignedOut)
)

// checkErrorReported validates the loosely-structured error report. The
// payload stays a structpb.Struct because error reports carry arbitrary
// context fields collected at the crash site.
func checkErrorReported(s *structpb.Struct) []schema.Issue {
	msg, ok := s.GetFields()["message"]
	if !ok || msg.GetStringValue() == "" {
		return []schema.Issue{schema.Issuef("message", "message is required")}
	}
	return nil
}

var defaultCatalog = catalog.MustNew(
	healthCheckSchema,
	errorReportedSchema,
	themeChangedSchema,
	componentMountedSchema,
	modalOpenedSchema,
	widgetAddedSchema,
	filterAppliedSchema,
	listingPublishedSchema,
	orderPlacedSchema,
	signedInSchema,
	signedOutSchema,
)

var defaultRegistry = registry.MustNew(
	registry.Entry{
		Name:        "HealthCheck",
		Schema:      healthCheckSchema,
		Domain:      "system",
		Version:     "1",
		Description: "Liveness report from a frontend or backend component.",
		Tags:        []string{"ops"},
	},
	registry.Entry{
		Name:        "ErrorReported",
		Schema:      errorReportedSchema,
		Domain:      "system",
		Version:     "1",
		Description: "Client-side error report with free-form context fields.",
		Tags:        []string{"ops", "errors"},
	},
	registry.Entry{
		Name:        "ThemeChanged",
		Schema:      themeChangedSchema,
		Domain:      "ui",
		Version:     "1",
		Description: "User switched the design-system theme.",
	},
	registry.Entry{
		Name:        "ComponentMounted",
		Schema:      componentMountedSchema,
		Domain:      "ui",
		Version:     "1",
		Description: "A design-system component rendered for the first time.",
	},
	registry.Entry{
		Name:        "ModalOpened",
		Schema:      modalOpenedSchema,
		Domain:      "ui",
		Version:     "1",
		Description: "A modal dialog was shown.",
	},
	registry.Entry{
		Name:        "WidgetAdded",
		Schema:      widgetAddedSchema,
		Domain:      "dashboard",
		Version:     "1",
		Description: "A widget was pinned to a dashboard.",
	},
	registry.Entry{
		Name:        "FilterApplied",
		Schema:      filterAppliedSchema,
		Domain:      "dashboard",
		Version:     "1",
		Description: "A dashboard filter changed.",
	},
	registry.Entry{
		Name:        "ListingPublished",
		Schema:      listingPublishedSchema,
		Domain:      "marketplace",
		Version:     "1",
		Description: "A marketplace listing went live.",
		Tags:        []string{"commerce"},
	},
	registry.Entry{
		Name:        "OrderPlaced",
		Schema:      orderPlacedSchema,
		Domain:      "marketplace",
		Version:     "1",
		Description: "A buyer checked out a listing.",
		Tags:        []string{"commerce"},
	},
	registry.Entry{
		Name:        "SignedIn",
		Schema:      signedInSchema,
		Domain:      "account",
		Version:     "1",
		Description: "Successful authentication.",
	},
	registry.Entry{
		Name:        "SignedOut",
		Schema:      signedOutSchema,
		Domain:      "account",
		Version:     "1",
		Description: "Session ended by the user or by expiry.",
	},
)

// Catalog returns the canonical type-keyed catalog. The catalog is immutable
// and shared; callers must not rely on identity.
func Catalog() *catalog.Catalog { return defaultCatalog }

// Registry returns the canonical name-keyed registry used for reporting and
// fixture validation.
func Registry() *registry.Registry { return defaultRegistry }
