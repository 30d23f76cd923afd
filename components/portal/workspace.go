package portal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// User-facing notification texts.
const (
	MessageVendorMissing   = "Vendor ID not found. Please login again."
	MessageOverallFailed   = "Failed to load overall data"
	MessageOverallEmpty    = "No overall data available."
	MessagePDFDownloaded   = "PDF downloaded successfully"
	MessagePDFInvalid      = "Invalid PDF data"
	MessagePDFFailed       = "Failed to download PDF"
	MessageExportFailed    = "Failed to export table"
	genericFailureTemplate = "Failed to load %s data"
)

// ErrDownloadUnavailable is returned when a document is not downloadable from
// the current table.
var ErrDownloadUnavailable = errors.New("portal: download not available")

// Download is a decoded document ready to be sent to the browser.
type Download struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Workspace is the portal state of one signed-in session: the selected
// section, its table engine, the overall summaries and the toast queue.
type Workspace struct {
	svc *Service

	mu              sync.Mutex
	session         Session
	section         SectionID
	def             SectionDefinition
	engine          *TableEngine
	nav             *Navigation
	toasts          *ToastQueue
	generation      uint64
	statsGeneration uint64
	loading         bool
	overview        Overview
	overviewLoaded  bool
	stats           DashboardStats
	lastErr         error
}

func newWorkspace(svc *Service, session Session) *Workspace {
	w := &Workspace{
		svc:     svc,
		session: session,
		section: SectionDashboard,
		engine:  NewTableEngine(),
		nav:     NewNavigation(),
		toasts:  NewToastQueue(WithToastTTL(svc.opts.ToastTTL)),
	}
	w.def, _ = svc.opts.Catalog.Section(SectionDashboard)
	w.engine.OnDownload(func(req DownloadRequest) {
		svc.opts.Telemetry.Record(context.Background(), EventInvoiceDownload, map[string]any{
			"stage":       "requested",
			"document_id": req.DocumentID,
		})
	})
	// Engine mutations happen with w.mu held, so w.section is safe to read here.
	w.engine.Subscribe(func(state TableState) {
		svc.opts.Telemetry.Record(context.Background(), EventTableChange, map[string]any{
			"section":  string(w.section),
			"filtered": state.FilteredCount,
			"page":     state.CurrentPage,
			"sort_key": state.SortKey,
		})
	})
	return w
}

// Session returns the session snapshot the workspace serves.
func (w *Workspace) Session() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

func (w *Workspace) setSession(session Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session = session
}

func (w *Workspace) expired(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.session.ExpiresAt.IsZero() && !now.Before(w.session.ExpiresAt)
}

// Toasts returns the notification queue of the workspace.
func (w *Workspace) Toasts() *ToastQueue {
	return w.toasts
}

// Section returns the selected section.
func (w *Workspace) Section() SectionID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.section
}

// Loading reports whether a section fetch is in flight.
func (w *Workspace) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// LastError returns the error of the most recent section fetch, if any.
func (w *Workspace) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Overview returns the last successfully loaded aggregate.
func (w *Workspace) Overview() (Overview, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.overview, w.overviewLoaded
}

// Stats returns the dashboard counters.
func (w *Workspace) Stats() DashboardStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Select makes id the active section and loads its data. Every selection
// supersedes loads still in flight, whether or not id fetches anything. Fetch
// failures bind an empty table and queue exactly one error toast; they are
// returned for logging only.
func (w *Workspace) Select(ctx context.Context, id SectionID) error {
	def, ok := w.svc.opts.Catalog.Section(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, id)
	}
	w.mu.Lock()
	w.section = id
	w.def = def
	w.generation++
	w.loading = false
	w.nav.Select(string(id))
	customerID := w.session.CustomerID
	w.mu.Unlock()

	switch {
	case def.Tabular:
		if customerID == "" {
			w.toasts.Error(MessageVendorMissing)
			return ErrUnauthenticated
		}
		return w.loadSection(ctx, def, customerID)
	case id == SectionOverall:
		return w.loadOverview(ctx, customerID)
	case id == SectionDashboard:
		w.LoadStats(ctx)
	}
	return nil
}

// ToggleGroup expands or collapses a sidebar group. Ids that are not groups
// fail with ErrUnknownSection and leave the sidebar unchanged.
func (w *Workspace) ToggleGroup(group string) error {
	if _, ok := w.nav.ToggleGroup(group); !ok {
		return fmt.Errorf("%w: %s is not a sidebar group", ErrUnknownSection, group)
	}
	return nil
}

// ToggleSidebar collapses or expands the sidebar.
func (w *Workspace) ToggleSidebar() bool {
	return w.nav.ToggleCollapsed()
}

// Search filters the current table.
func (w *Workspace) Search(term string) TableState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.SetSearchTerm(term)
	return w.engine.State()
}

// Sort sorts the current table on key.
func (w *Workspace) Sort(key string) TableState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.SortBy(key)
	return w.engine.State()
}

// GoToPage moves the current table to page n.
func (w *Workspace) GoToPage(n int) TableState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.GoToPage(n)
	return w.engine.State()
}

// TableState returns the view state of the current table.
func (w *Workspace) TableState() TableState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.State()
}

func (w *Workspace) begin() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.loading = true
	return w.generation
}

func (w *Workspace) gateway() (Gateway, error) {
	if w.svc.opts.Gateway == nil {
		return nil, fmt.Errorf("%w: gateway not configured", ErrFetchFailure)
	}
	return w.svc.opts.Gateway, nil
}

func (w *Workspace) loadSection(ctx context.Context, def SectionDefinition, customerID string) error {
	gen := w.begin()
	start := time.Now()

	var records []Record
	gw, err := w.gateway()
	if err == nil {
		records, err = gw.FetchSection(ctx, def.ID, customerID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.svc.opts.Telemetry.Record(ctx, EventSectionStale, map[string]any{"section": string(def.ID)})
		return nil
	}
	w.loading = false
	payload := map[string]any{
		"section":     string(def.ID),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		err = asFetchFailure(err)
		w.lastErr = err
		if bindErr := w.engine.Bind(nil, def.Columns, w.svc.opts.PageSize, def.Download); bindErr != nil {
			return bindErr
		}
		w.toasts.Error(failureMessage(def))
		payload["error"] = err.Error()
		w.svc.opts.Telemetry.Record(ctx, EventSectionLoad, payload)
		w.svc.opts.Logger.WarnContext(ctx, "section load failed", "section", def.ID, "customer_id", customerID, "error", err)
		return fmt.Errorf("portal: load %s: %w", def.ID, err)
	}
	if err := w.engine.Bind(records, def.Columns, w.svc.opts.PageSize, def.Download); err != nil {
		return err
	}
	w.lastErr = nil
	payload["count"] = len(records)
	w.svc.opts.Telemetry.Record(ctx, EventSectionLoad, payload)
	w.svc.opts.Activity.Record(ctx, w.session, "view", "section", string(def.ID), map[string]any{"count": len(records)})
	return nil
}

func (w *Workspace) loadOverview(ctx context.Context, customerID string) error {
	gen := w.begin()

	var records []Record
	gw, err := w.gateway()
	if err == nil {
		records, err = gw.FetchOverall(ctx, customerID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.svc.opts.Telemetry.Record(ctx, EventSectionStale, map[string]any{"section": string(SectionOverall)})
		return nil
	}
	w.loading = false
	if err != nil {
		err = asFetchFailure(err)
		w.lastErr = err
		w.toasts.Error(MessageOverallFailed)
		w.svc.opts.Telemetry.Record(ctx, EventOverviewLoad, map[string]any{"error": err.Error()})
		w.svc.opts.Logger.WarnContext(ctx, "overall load failed", "customer_id", customerID, "error", err)
		return fmt.Errorf("portal: load overall: %w", err)
	}
	overview, err := OverviewFromRecords(records)
	if err != nil {
		w.lastErr = err
		w.toasts.Error(MessageOverallEmpty)
		w.svc.opts.Telemetry.Record(ctx, EventOverviewLoad, map[string]any{"error": err.Error()})
		w.svc.opts.Logger.WarnContext(ctx, "overall data malformed", "customer_id", customerID, "records", len(records))
		return err
	}
	w.lastErr = nil
	w.overview = overview
	w.overviewLoaded = true
	w.svc.opts.Telemetry.Record(ctx, EventOverviewLoad, map[string]any{"currency": overview.Currency})
	w.svc.opts.Activity.Record(ctx, w.session, "view", "section", string(SectionOverall), nil)
	return nil
}

// LoadStats refreshes the four dashboard counters concurrently. Each counter
// is updated as soon as its own fetch completes; failed fetches leave their
// counter untouched.
func (w *Workspace) LoadStats(ctx context.Context) DashboardStats {
	w.mu.Lock()
	w.statsGeneration++
	gen := w.statsGeneration
	customerID := w.session.CustomerID
	w.mu.Unlock()

	gw, err := w.gateway()
	if err != nil || customerID == "" {
		return w.Stats()
	}

	counters := []struct {
		section SectionID
		set     func(*DashboardStats, int)
	}{
		{SectionInquiry, func(s *DashboardStats, n int) { s.Inquiries = n }},
		{SectionSales, func(s *DashboardStats, n int) { s.Sales = n }},
		{SectionInvoice, func(s *DashboardStats, n int) { s.Invoices = n }},
		{SectionDelivery, func(s *DashboardStats, n int) { s.Deliveries = n }},
	}
	start := time.Now()
	var wg sync.WaitGroup
	for _, counter := range counters {
		wg.Go(func() {
			records, err := gw.FetchSection(ctx, counter.section, customerID)
			if err != nil {
				w.svc.opts.Logger.DebugContext(ctx, "dashboard count failed", "section", counter.section, "error", err)
				return
			}
			w.mu.Lock()
			defer w.mu.Unlock()
			if gen != w.statsGeneration {
				return
			}
			counter.set(&w.stats, len(records))
		})
	}
	wg.Wait()

	stats := w.Stats()
	w.svc.opts.Telemetry.Record(ctx, EventStatsLoad, map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"inquiries":   stats.Inquiries,
		"sales":       stats.Sales,
		"invoices":    stats.Invoices,
		"deliveries":  stats.Deliveries,
	})
	return stats
}

// DownloadInvoice fetches and decodes the PDF of documentID, which must be a
// row of the bound invoice table. Every outcome queues exactly one toast.
func (w *Workspace) DownloadInvoice(ctx context.Context, documentID string) (Download, error) {
	documentID = strings.TrimSpace(documentID)
	w.mu.Lock()
	var (
		req DownloadRequest
		ok  bool
	)
	if w.section == SectionInvoice && w.hasDownloadKeyLocked(documentID) {
		req, ok = w.engine.RequestDownload(documentID)
	}
	session := w.session
	w.mu.Unlock()
	if !ok {
		return Download{}, fmt.Errorf("%w: %q", ErrDownloadUnavailable, documentID)
	}

	gw, err := w.gateway()
	var payload PDFPayload
	if err == nil {
		payload, err = gw.FetchInvoicePDF(ctx, req.DocumentID)
	}
	if err != nil {
		err = asFetchFailure(err)
		w.toasts.Error(MessagePDFFailed)
		w.recordDownload(ctx, req.DocumentID, "failed")
		return Download{}, fmt.Errorf("portal: download %s: %w", req.DocumentID, err)
	}
	content, err := DecodePDFPayload(payload)
	if err != nil {
		w.toasts.Error(MessagePDFInvalid)
		w.recordDownload(ctx, req.DocumentID, "invalid")
		return Download{}, fmt.Errorf("portal: download %s: %w", req.DocumentID, err)
	}
	w.toasts.Success(MessagePDFDownloaded)
	w.recordDownload(ctx, req.DocumentID, "ok")
	w.svc.opts.Activity.Record(ctx, session, "download", "invoice", req.DocumentID, map[string]any{"bytes": len(content)})
	return Download{
		Filename:    InvoiceFilename(req.DocumentID),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (w *Workspace) hasDownloadKeyLocked(documentID string) bool {
	if documentID == "" || !w.engine.DownloadEnabled() {
		return false
	}
	for _, rec := range w.engine.records {
		if rec.DownloadKey() == documentID {
			return true
		}
	}
	return false
}

func (w *Workspace) recordDownload(ctx context.Context, documentID, result string) {
	w.svc.opts.Telemetry.Record(ctx, EventInvoiceDownload, map[string]any{
		"stage":       "completed",
		"document_id": documentID,
		"result":      result,
	})
}

// DecodePDFPayload returns the PDF bytes of a successful payload.
func DecodePDFPayload(payload PDFPayload) ([]byte, error) {
	encoded := strings.TrimSpace(payload.Base64)
	if !payload.Success || encoded == "" {
		return nil, ErrInvalidPDFPayload
	}
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPDFPayload, err)
	}
	if len(content) == 0 {
		return nil, ErrInvalidPDFPayload
	}
	return content, nil
}

// InvoiceFilename names the saved PDF of documentID.
func InvoiceFilename(documentID string) string {
	return "Invoice_" + documentID + ".pdf"
}

func failureMessage(def SectionDefinition) string {
	if def.FailureMessage != "" {
		return def.FailureMessage
	}
	return fmt.Sprintf(genericFailureTemplate, def.Title)
}

func asFetchFailure(err error) error {
	if errors.Is(err, ErrFetchFailure) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFetchFailure, err)
}
