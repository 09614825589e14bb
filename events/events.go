// Package events declares the canonical event vocabulary of the pageloom web
// app: the wire type constants, the payload structs with their validation
// rules, and the assembled catalog and registry the emitter and tooling run
// against.
package events

import "strings"

// Wire event types, grouped by domain.
const (
	SystemHealthCheck   = "system.health_check"
	SystemErrorReported = "system.error_reported"

	UIThemeChanged     = "ui.theme_changed"
	UIComponentMounted = "ui.component_mounted"
	UIModalOpened      = "ui.modal_opened"

	DashboardWidgetAdded   = "dashboard.widget_added"
	DashboardFilterApplied = "dashboard.filter_applied"

	MarketplaceListingPublished = "marketplace.listing_published"
	MarketplaceOrderPlaced      = "marketplace.order_placed"

	AccountSignedIn  = "account.signed_in"
	AccountSignedOut = "account.signed_out"
)

// LegacyTypes lists uncatalogued event types still emitted by old frontend
// builds. Strict-mode deployments allowlist these until the payloads get
// schemas.
var LegacyTypes = []string{
	"legacy.page_view",
	"legacy.cta_click",
}

// Domain returns the domain prefix of an event type:
// "system.health_check" -> "system". Types without a dot are their own domain.
func Domain(eventType string) string {
	if i := strings.IndexByte(eventType, '.'); i >= 0 {
		return eventType[:i]
	}
	return eventType
}
