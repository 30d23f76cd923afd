package portal

import (
	"cmp"
	"iter"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultPageSize is the page size used by the portal tables.
	DefaultPageSize = 10
	maxVisiblePages = 5
)

// SortDirection orders the sorted column.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// TableState is a snapshot of the view state of a table.
type TableState struct {
	SearchTerm    string        `json:"search_term"`
	SortKey       string        `json:"sort_key,omitempty"`
	SortDirection SortDirection `json:"sort_direction,omitempty"`
	CurrentPage   int           `json:"current_page"`
	PageSize      int           `json:"page_size"`
	TotalPages    int           `json:"total_pages"`
	FilteredCount int           `json:"filtered_count"`
}

// DownloadRequest is emitted when the user asks for a row document.
type DownloadRequest struct {
	DocumentID string
}

// TableEngine owns filter, sort and pagination state over one bound record set.
// It is not safe for concurrent use; callers serialize access.
type TableEngine struct {
	records         []Record
	columns         []Column
	downloadEnabled bool

	searchTerm  string
	sortKey     string
	sortDir     SortDirection
	currentPage int
	pageSize    int

	filtered []Record

	subMu       sync.Mutex
	nextSub     int
	subscribers map[int]func(TableState)
	downloads   map[int]func(DownloadRequest)
}

// NewTableEngine returns an engine bound to an empty record set.
func NewTableEngine() *TableEngine {
	return &TableEngine{
		sortDir:     SortAsc,
		currentPage: 1,
		pageSize:    DefaultPageSize,
		subscribers: map[int]func(TableState){},
		downloads:   map[int]func(DownloadRequest){},
	}
}

// Bind replaces the record set and schema and resets the view state. It must
// be called every time the upstream record set changes.
func (e *TableEngine) Bind(records []Record, columns []Column, pageSize int, downloadEnabled bool) error {
	if pageSize <= 0 {
		return ErrInvalidPageSize
	}
	e.records = append([]Record(nil), records...)
	e.columns = append([]Column(nil), columns...)
	e.pageSize = pageSize
	e.downloadEnabled = downloadEnabled
	e.searchTerm = ""
	e.sortKey = ""
	e.sortDir = SortAsc
	e.currentPage = 1
	e.refilter()
	e.notify()
	return nil
}

// SetSearchTerm filters records whose fields contain term, case-insensitively,
// and returns to the first page.
func (e *TableEngine) SetSearchTerm(term string) {
	e.searchTerm = term
	e.currentPage = 1
	e.refilter()
	e.notify()
}

// SortBy sorts on key, toggling the direction when key is already active.
// Keys of unknown or non-sortable columns are ignored.
func (e *TableEngine) SortBy(key string) {
	col, ok := e.column(key)
	if !ok || !col.Sortable {
		return
	}
	if e.sortKey == key {
		if e.sortDir == SortAsc {
			e.sortDir = SortDesc
		} else {
			e.sortDir = SortAsc
		}
	} else {
		e.sortKey = key
		e.sortDir = SortAsc
	}
	e.applySort()
	e.notify()
}

// GoToPage moves to page n when it is within [1, TotalPages].
func (e *TableEngine) GoToPage(n int) {
	if n < 1 || n > e.TotalPages() || n == e.currentPage {
		return
	}
	e.currentPage = n
	e.notify()
}

// TotalPages returns ceil(filtered / pageSize); zero when nothing matches.
func (e *TableEngine) TotalPages() int {
	return (len(e.filtered) + e.pageSize - 1) / e.pageSize
}

// CurrentPage returns the 1-based current page.
func (e *TableEngine) CurrentPage() int {
	return e.currentPage
}

// Columns returns the bound schema.
func (e *TableEngine) Columns() []Column {
	return append([]Column(nil), e.columns...)
}

// DownloadEnabled reports whether rows expose a download action.
func (e *TableEngine) DownloadEnabled() bool {
	return e.downloadEnabled
}

// Records returns the full bound record set in original order.
func (e *TableEngine) Records() []Record {
	return append([]Record(nil), e.records...)
}

// Filtered returns the records matching the search term in display order.
func (e *TableEngine) Filtered() []Record {
	return append([]Record(nil), e.filtered...)
}

// Page returns the records of the current page.
func (e *TableEngine) Page() []Record {
	start := (e.currentPage - 1) * e.pageSize
	if start >= len(e.filtered) {
		return nil
	}
	end := min(start+e.pageSize, len(e.filtered))
	return append([]Record(nil), e.filtered[start:end]...)
}

// VisiblePageNumbers yields at most five contiguous page numbers centred on the
// current page and clamped to [1, TotalPages].
func (e *TableEngine) VisiblePageNumbers() iter.Seq[int] {
	current, total := e.currentPage, e.TotalPages()
	return func(yield func(int) bool) {
		start := max(1, current-maxVisiblePages/2)
		end := min(total, start+maxVisiblePages-1)
		if end-start+1 < maxVisiblePages {
			start = max(1, end-maxVisiblePages+1)
		}
		for page := start; page <= end; page++ {
			if !yield(page) {
				return
			}
		}
	}
}

// DisplayRange returns "start-end" for the current page, or "0-0" when empty.
func (e *TableEngine) DisplayRange() string {
	if len(e.filtered) == 0 {
		return "0-0"
	}
	start := (e.currentPage-1)*e.pageSize + 1
	end := min(e.currentPage*e.pageSize, len(e.filtered))
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}

// State returns a snapshot of the view state.
func (e *TableEngine) State() TableState {
	return TableState{
		SearchTerm:    e.searchTerm,
		SortKey:       e.sortKey,
		SortDirection: e.sortDir,
		CurrentPage:   e.currentPage,
		PageSize:      e.pageSize,
		TotalPages:    e.TotalPages(),
		FilteredCount: len(e.filtered),
	}
}

// RequestDownload emits a download request for rowKey to registered listeners.
// It does no I/O itself.
func (e *TableEngine) RequestDownload(rowKey string) (DownloadRequest, bool) {
	rowKey = strings.TrimSpace(rowKey)
	if !e.downloadEnabled || rowKey == "" {
		return DownloadRequest{}, false
	}
	req := DownloadRequest{DocumentID: rowKey}
	e.subMu.Lock()
	listeners := make([]func(DownloadRequest), 0, len(e.downloads))
	for _, fn := range e.downloads {
		listeners = append(listeners, fn)
	}
	e.subMu.Unlock()
	for _, fn := range listeners {
		fn(req)
	}
	return req, true
}

// Subscribe registers fn to be called after every state change.
func (e *TableEngine) Subscribe(fn func(TableState)) (cancel func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subscribers, id)
	}
}

// OnDownload registers fn to receive download requests.
func (e *TableEngine) OnDownload(fn func(DownloadRequest)) (cancel func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.downloads[id] = fn
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.downloads, id)
	}
}

func (e *TableEngine) notify() {
	state := e.State()
	e.subMu.Lock()
	subs := make([]func(TableState), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.subMu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}

func (e *TableEngine) column(key string) (Column, bool) {
	for _, col := range e.columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column{}, false
}

func (e *TableEngine) refilter() {
	term := strings.ToLower(e.searchTerm)
	if strings.TrimSpace(term) == "" {
		e.filtered = append([]Record(nil), e.records...)
	} else {
		e.filtered = e.filtered[:0:0]
		for _, rec := range e.records {
			if rec.matches(term) {
				e.filtered = append(e.filtered, rec)
			}
		}
	}
	if e.sortKey != "" {
		e.applySort()
	}
}

func (e *TableEngine) applySort() {
	key, desc := e.sortKey, e.sortDir == SortDesc
	slices.SortStableFunc(e.filtered, func(a, b Record) int {
		c := compareValues(a[key], b[key])
		if desc {
			return -c
		}
		return c
	})
}

// compareValues orders numbers and numeric strings numerically, times and
// date-like strings chronologically and everything else by case-folded string
// form. Absent values sort first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if af, ok := numericValue(a); ok {
		if bf, ok := numericValue(b); ok {
			return cmp.Compare(af, bf)
		}
	}
	if at, ok := timeValue(a); ok {
		if bt, ok := timeValue(b); ok {
			return at.Compare(bt)
		}
	}
	return strings.Compare(strings.ToLower(stringify(a)), strings.ToLower(stringify(b)))
}

func timeValue(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		return ParseDate(val)
	default:
		return time.Time{}, false
	}
}
