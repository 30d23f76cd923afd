package portal

import "context"

// Telemetry event names.
const (
	EventSectionLoad     = "portal.section.load"
	EventSectionStale    = "portal.section.stale"
	EventOverviewLoad    = "portal.overview.load"
	EventStatsLoad       = "portal.stats.load"
	EventInvoiceDownload = "portal.invoice.download"
	EventTableExport     = "portal.table.export"
	EventTableChange     = "portal.table.change"
	EventLogin           = "portal.session.login"
	EventLogout          = "portal.session.logout"
)

// Telemetry receives one call per portal event: section loads (fresh or
// discarded as stale), downloads, exports, table changes and session
// boundaries. Payloads carry identifiers and counts, never credentials.
// A nil Options.Telemetry drops events.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func telemetryOrNoop(t Telemetry) Telemetry {
	if t != nil {
		return t
	}
	return noopTelemetry{}
}
