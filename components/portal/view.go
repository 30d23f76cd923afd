package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const recentActivityLimit = 5

// PageView is the render snapshot of a workspace.
type PageView struct {
	Section          SectionID       `json:"section"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Loading          bool            `json:"loading"`
	CustomerID       string          `json:"customer_id"`
	DisplayName      string          `json:"display_name"`
	Initials         string          `json:"initials"`
	Vendor           *Vendor         `json:"vendor,omitempty"`
	Nav              []NavItem       `json:"nav"`
	SidebarCollapsed bool            `json:"sidebar_collapsed"`
	Table            *TableView      `json:"table,omitempty"`
	MemoCustomer     string          `json:"memo_customer,omitempty"`
	Stats            *DashboardStats `json:"stats,omitempty"`
	Activity         []ActivityEntry `json:"activity,omitempty"`
	Overview         *OverviewView   `json:"overview,omitempty"`
	Toasts           []Toast         `json:"toasts"`
}

// TableView is the visible page of the bound table.
type TableView struct {
	Columns         []HeaderView `json:"columns"`
	Rows            []RowView    `json:"rows"`
	SearchTerm      string       `json:"search_term"`
	Pages           []PageLink   `json:"pages"`
	CurrentPage     int          `json:"current_page"`
	TotalPages      int          `json:"total_pages"`
	HasPrev         bool         `json:"has_prev"`
	HasNext         bool         `json:"has_next"`
	PrevPage        int          `json:"prev_page"`
	NextPage        int          `json:"next_page"`
	Range           string       `json:"range"`
	FilteredCount   int          `json:"filtered_count"`
	DownloadEnabled bool         `json:"download_enabled"`
	Empty           bool         `json:"empty"`
}

// HeaderView is one column header with its sort indicator.
type HeaderView struct {
	Key       string        `json:"key"`
	Label     string        `json:"label"`
	Sortable  bool          `json:"sortable"`
	Sorted    bool          `json:"sorted"`
	Direction SortDirection `json:"direction,omitempty"`
}

// RowView is one formatted table row.
type RowView struct {
	Cells       []CellView `json:"cells"`
	DownloadKey string     `json:"download_key,omitempty"`
}

// CellView is a formatted cell and its CSS class.
type CellView struct {
	Value string `json:"value"`
	Class string `json:"class,omitempty"`
}

// PageLink is one pagination button.
type PageLink struct {
	Number  int  `json:"number"`
	Current bool `json:"current"`
}

// OverviewView carries the rendered overall charts.
type OverviewView struct {
	Overview
	PieHTML string `json:"pie_html"`
	BarHTML string `json:"bar_html"`
}

// ActivityEntry is one line of the dashboard activity feed.
type ActivityEntry struct {
	Verb       string    `json:"verb"`
	ObjectType string    `json:"object_type"`
	ObjectID   string    `json:"object_id"`
	OccurredAt time.Time `json:"occurred_at"`
	When       string    `json:"when"`
}

// View builds the render snapshot of the workspace for locale. Toasts are
// listed, not drained.
func (w *Workspace) View(locale string) (PageView, error) {
	w.mu.Lock()
	def := w.def
	session := w.session
	view := PageView{
		Section:          w.section,
		Title:            def.TitleForLocale(locale),
		Description:      def.DescriptionForLocale(locale),
		Loading:          w.loading,
		CustomerID:       session.CustomerID,
		DisplayName:      session.DisplayName(),
		Initials:         Initials(session.DisplayName()),
		Vendor:           session.Vendor,
		Nav:              w.nav.Items(),
		SidebarCollapsed: w.nav.Collapsed(),
	}
	if def.Tabular {
		view.Table = w.tableViewLocked()
		if w.section == SectionMemo {
			view.MemoCustomer = memoCustomer(w.engine.records)
		}
	}
	if w.section == SectionDashboard {
		stats := w.stats
		view.Stats = &stats
	}
	overview, overviewLoaded := w.overview, w.overviewLoaded
	w.mu.Unlock()

	if view.Section == SectionDashboard {
		for _, rec := range w.svc.opts.Activity.Recent(session.CustomerID, recentActivityLimit) {
			view.Activity = append(view.Activity, ActivityEntry{
				Verb:       rec.Verb,
				ObjectType: rec.ObjectType,
				ObjectID:   rec.ObjectID,
				OccurredAt: rec.OccurredAt,
				When:       rec.OccurredAt.Local().Format("02 Jan 15:04"),
			})
		}
	}
	if view.Section == SectionOverall && overviewLoaded {
		charts, err := w.svc.opts.Charts.RenderOverview(overview)
		if err != nil {
			return view, err
		}
		view.Overview = &OverviewView{Overview: overview, PieHTML: charts.PieHTML, BarHTML: charts.BarHTML}
	}
	view.Toasts = w.toasts.Active()
	return view, nil
}

func (w *Workspace) tableViewLocked() *TableView {
	e := w.engine
	f := w.svc.opts.Formatter
	state := e.State()

	tv := &TableView{
		SearchTerm:      state.SearchTerm,
		CurrentPage:     state.CurrentPage,
		TotalPages:      state.TotalPages,
		Range:           e.DisplayRange(),
		FilteredCount:   state.FilteredCount,
		DownloadEnabled: e.DownloadEnabled(),
		Empty:           state.FilteredCount == 0,
	}
	tv.HasPrev = state.CurrentPage > 1
	tv.HasNext = state.CurrentPage < state.TotalPages
	tv.PrevPage = max(1, state.CurrentPage-1)
	tv.NextPage = min(max(state.TotalPages, 1), state.CurrentPage+1)

	columns := e.Columns()
	for _, col := range columns {
		h := HeaderView{Key: col.Key, Label: col.Label, Sortable: col.Sortable}
		if col.Key == state.SortKey {
			h.Sorted = true
			h.Direction = state.SortDirection
		}
		tv.Columns = append(tv.Columns, h)
	}
	for page := range e.VisiblePageNumbers() {
		tv.Pages = append(tv.Pages, PageLink{Number: page, Current: page == state.CurrentPage})
	}
	for _, rec := range e.Page() {
		row := RowView{Cells: make([]CellView, 0, len(columns))}
		if tv.DownloadEnabled {
			row.DownloadKey = rec.DownloadKey()
		}
		for _, col := range columns {
			raw, _ := rec.Value(col.Key)
			row.Cells = append(row.Cells, CellView{
				Value: f.FormatCell(col, rec),
				Class: CellClass(col, raw),
			})
		}
		tv.Rows = append(tv.Rows, row)
	}
	return tv
}

func memoCustomer(records []Record) string {
	if len(records) == 0 {
		return ""
	}
	first := records[0]
	return fmt.Sprintf("Customer: %s (ID: %s)", first.String("customerName"), first.String("customerId"))
}

// Context flattens the view into the template context. Numbers stay
// json.Number so templates print them verbatim.
func (v PageView) Context() (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("portal: encode view: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	out := map[string]any{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("portal: decode view: %w", err)
	}
	return out, nil
}
