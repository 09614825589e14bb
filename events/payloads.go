package events

import (
	"github.com/pageloom/eventgate/internal/gate/schema"
)

// Health statuses accepted by system.health_check.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthError    = "error"
)

// HealthCheck reports the liveness of a frontend or backend component.
type HealthCheck struct {
	schema.Envelope
	Status    string `json:"status"`
	Component string `json:"component,omitempty"`
}

func checkHealthCheck(p *HealthCheck) []schema.Issue {
	switch p.Status {
	case HealthOK, HealthDegraded, HealthError:
		return nil
	default:
		return []schema.Issue{schema.Issuef("status", "must be one of ok, degraded, error; got %q", p.Status)}
	}
}

// ThemeChanged fires when the user switches the design-system theme.
type ThemeChanged struct {
	schema.Envelope
	Theme    string `json:"theme"`
	Previous string `json:"previous,omitempty"`
}

func checkThemeChanged(p *ThemeChanged) []schema.Issue {
	if p.Theme == "" {
		return []schema.Issue{schema.Issuef("theme", "theme is required")}
	}
	return nil
}

// ComponentMounted fires when a design-system component first renders.
type ComponentMounted struct {
	schema.Envelope
	Component string `json:"component"`
	Variant   string `json:"variant,omitempty"`
}

func checkComponentMounted(p *ComponentMounted) []schema.Issue {
	if p.Component == "" {
		return []schema.Issue{schema.Issuef("component", "component is required")}
	}
	return nil
}

// ModalOpened fires when a modal dialog is shown.
type ModalOpened struct {
	schema.Envelope
	Modal  string `json:"modal"`
	Source string `json:"source,omitempty"`
}

func checkModalOpened(p *ModalOpened) []schema.Issue {
	if p.Modal == "" {
		return []schema.Issue{schema.Issuef("modal", "modal is required")}
	}
	return nil
}

// WidgetAdded fires when a user pins a widget to a dashboard.
type WidgetAdded struct {
	schema.Envelope
	WidgetID    string `json:"widget_id"`
	DashboardID string `json:"dashboard_id"`
	Kind        string `json:"kind,omitempty"`
}

func checkWidgetAdded(p *WidgetAdded) []schema.Issue {
	var issues []schema.Issue
	if p.WidgetID == "" {
		issues = append(issues, schema.Issuef("widget_id", "widget_id is required"))
	}
	if p.DashboardID == "" {
		issues = append(issues, schema.Issuef("dashboard_id", "dashboard_id is required"))
	}
	return issues
}

// FilterApplied fires when a dashboard filter changes.
type FilterApplied struct {
	schema.Envelope
	DashboardID string `json:"dashboard_id"`
	Field       string `json:"field"`
	Value       string `json:"value,omitempty"`
}

func checkFilterApplied(p *FilterApplied) []schema.Issue {
	var issues []schema.Issue
	if p.DashboardID == "" {
		issues = append(issues, schema.Issuef("dashboard_id", "dashboard_id is required"))
	}
	if p.Field == "" {
		issues = append(issues, schema.Issuef("field", "field is required"))
	}
	return issues
}

// ListingPublished fires when a marketplace listing goes live.
type ListingPublished struct {
	schema.Envelope
	ListingID string  `json:"listing_id"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency,omitempty"`
}

func checkListingPublished(p *ListingPublished) []schema.Issue {
	var issues []schema.Issue
	if p.ListingID == "" {
		issues = append(issues, schema.Issuef("listing_id", "listing_id is required"))
	}
	if p.Price < 0 {
		issues = append(issues, schema.Issuef("price", "price must not be negative; got %v", p.Price))
	}
	return issues
}

// OrderPlaced fires when a buyer checks out a listing.
type OrderPlaced struct {
	schema.Envelope
	OrderID   string `json:"order_id"`
	ListingID string `json:"listing_id"`
	Quantity  int    `json:"quantity"`
}

func checkOrderPlaced(p *OrderPlaced) []schema.Issue {
	var issues []schema.Issue
	if p.OrderID == "" {
		issues = append(issues, schema.Issuef("order_id", "order_id is required"))
	}
	if p.ListingID == "" {
		issues = append(issues, schema.Issuef("listing_id", "listing_id is required"))
	}
	if p.Quantity < 1 {
		issues = append(issues, schema.Issuef("quantity", "quantity must be at least 1; got %d", p.Quantity))
	}
	return issues
}

// SignedIn fires on a successful authentication.
type SignedIn struct {
	schema.Envelope
	UserID string `json:"user_id"`
	Method string `json:"method,omitempty"`
}

func checkSignedIn(p *SignedIn) []schema.Issue {
	if p.UserID == "" {
		return []schema.Issue{schema.Issuef("user_id", "user_id is required")}
	}
	return nil
}

// SignedOut fires when a session ends, whether by the user or by expiry.
type SignedOut struct {
	schema.Envelope
	UserID string `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

func checkSignedOut(p *SignedOut) []schema.Issue {
	if p.UserID == "" {
		return []schema.Issue{schema.Issuef("user_id", "user_id is required")}
	}
	return nil
}
