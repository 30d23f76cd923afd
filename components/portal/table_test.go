package portal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

func numberedRecords(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{"id": fmt.Sprintf("DOC-%02d", i+1), "seq": float64(i + 1)}
	}
	return out
}

var numberedColumns = []Column{
	{Key: "id", Label: "ID", Sortable: true},
	{Key: "seq", Label: "Seq", Type: ColumnNumber, Sortable: true},
}

func mustBind(t *testing.T, e *TableEngine, records []Record, columns []Column, pageSize int) {
	t.Helper()
	if err := e.Bind(records, columns, pageSize, false); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
}

func TestBindResetsState(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(30), numberedColumns, 10)
	e.SetSearchTerm("doc")
	e.SortBy("seq")
	e.GoToPage(3)

	mustBind(t, e, numberedRecords(5), numberedColumns, 10)
	state := e.State()
	if state.SearchTerm != "" || state.SortKey != "" || state.CurrentPage != 1 {
		t.Fatalf("expected fresh state after bind, got %+v", state)
	}
	if state.SortDirection != SortAsc {
		t.Fatalf("expected asc direction after bind, got %s", state.SortDirection)
	}
	if len(e.Filtered()) != 5 {
		t.Fatalf("expected all records visible, got %d", len(e.Filtered()))
	}
}

func TestBindRejectsNonPositivePageSize(t *testing.T) {
	e := NewTableEngine()
	for _, size := range []int{0, -3} {
		if err := e.Bind(numberedRecords(3), numberedColumns, size, false); !errors.Is(err, ErrInvalidPageSize) {
			t.Fatalf("expected ErrInvalidPageSize for %d, got %v", size, err)
		}
	}
}

func TestSetSearchTermMatchesAnyField(t *testing.T) {
	records := []Record{
		{"invoiceNumber": "INV-100", "city": "Pune"},
		{"invoiceNumber": "INV-200", "city": "Chennai", "hidden": "Special"},
		{"invoiceNumber": "INV-300", "city": "Delhi", "amount": float64(4500)},
	}
	e := NewTableEngine()
	mustBind(t, e, records, []Column{{Key: "invoiceNumber"}}, 10)

	e.SetSearchTerm("special")
	if got := e.Filtered(); len(got) != 1 || got[0]["invoiceNumber"] != "INV-200" {
		t.Fatalf("expected search over non-displayed fields, got %#v", got)
	}

	e.SetSearchTerm("PUNE")
	if got := e.Filtered(); len(got) != 1 || got[0]["invoiceNumber"] != "INV-100" {
		t.Fatalf("expected case-insensitive match, got %#v", got)
	}

	e.SetSearchTerm("4500")
	if got := e.Filtered(); len(got) != 1 || got[0]["invoiceNumber"] != "INV-300" {
		t.Fatalf("expected numeric field match, got %#v", got)
	}

	e.SetSearchTerm("   ")
	if got := e.Filtered(); len(got) != len(records) {
		t.Fatalf("expected blank term to match all, got %d", len(got))
	}
}

func TestSearchResultsAreSubsetWithMatchingField(t *testing.T) {
	records := numberedRecords(40)
	e := NewTableEngine()
	mustBind(t, e, records, numberedColumns, 10)
	for _, term := range []string{"", "1", "DOC-0", "doc-3", "zzz"} {
		e.SetSearchTerm(term)
		for _, rec := range e.Filtered() {
			if !slices.ContainsFunc(records, func(r Record) bool { return r["id"] == rec["id"] }) {
				t.Fatalf("filtered record %v not in source set", rec)
			}
			if !rec.matches(strings.ToLower(term)) {
				t.Fatalf("record %v does not contain %q", rec, term)
			}
		}
	}
}

func TestSearchResetsPage(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(30), numberedColumns, 10)
	e.GoToPage(3)
	e.SetSearchTerm("doc")
	if e.CurrentPage() != 1 {
		t.Fatalf("expected page reset to 1, got %d", e.CurrentPage())
	}
}

func TestSortByTogglesDirection(t *testing.T) {
	records := []Record{{"amt": float64(5)}, {"amt": float64(50)}, {"amt": float64(1)}}
	e := NewTableEngine()
	mustBind(t, e, records, []Column{{Key: "amt", Type: ColumnCurrency, Sortable: true}}, 10)

	e.SortBy("amt")
	if got := amounts(e.Filtered()); !slices.Equal(got, []float64{1, 5, 50}) {
		t.Fatalf("expected ascending order, got %v", got)
	}
	e.SortBy("amt")
	if got := amounts(e.Filtered()); !slices.Equal(got, []float64{50, 5, 1}) {
		t.Fatalf("expected descending order, got %v", got)
	}
	e.SortBy("amt")
	if e.State().SortDirection != SortAsc {
		t.Fatalf("expected direction to return to asc")
	}
}

func TestSortByNewKeyResetsToAscending(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(3), numberedColumns, 10)
	e.SortBy("seq")
	e.SortBy("seq")
	e.SortBy("id")
	state := e.State()
	if state.SortKey != "id" || state.SortDirection != SortAsc {
		t.Fatalf("expected id asc, got %+v", state)
	}
}

func TestSortByIgnoresNonSortableColumns(t *testing.T) {
	records := []Record{{"name": "b"}, {"name": "a"}}
	e := NewTableEngine()
	mustBind(t, e, records, []Column{{Key: "name"}}, 10)
	before := e.State()
	e.SortBy("name")
	e.SortBy("missing")
	if e.State() != before {
		t.Fatalf("expected no state change, got %+v", e.State())
	}
	if e.Filtered()[0]["name"] != "b" {
		t.Fatalf("expected original order preserved")
	}
}

func TestSortDoesNotResetPage(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(30), numberedColumns, 10)
	e.GoToPage(2)
	e.SortBy("seq")
	if e.CurrentPage() != 2 {
		t.Fatalf("expected page 2 after sort, got %d", e.CurrentPage())
	}
}

func TestSortIsStableForTies(t *testing.T) {
	records := []Record{
		{"id": "a", "status": "Pending"},
		{"id": "b", "status": "Completed"},
		{"id": "c", "status": "Pending"},
		{"id": "d", "status": "Completed"},
	}
	e := NewTableEngine()
	mustBind(t, e, records, []Column{{Key: "status", Type: ColumnStatus, Sortable: true}}, 10)
	e.SortBy("status")
	var ids []string
	for _, rec := range e.Filtered() {
		ids = append(ids, rec.String("id"))
	}
	if !slices.Equal(ids, []string{"b", "d", "a", "c"}) {
		t.Fatalf("expected stable order, got %v", ids)
	}
}

func TestSortComparesMixedValues(t *testing.T) {
	cases := []struct {
		name   string
		values []any
		want   []string
	}{
		{"numeric strings", []any{"10", float64(9), "2"}, []string{"2", "9", "10"}},
		{"dates", []any{"2024-03-01", "20240115", "/Date(1700000000000)/"}, []string{"/Date(1700000000000)/", "20240115", "2024-03-01"}},
		{"case folded", []any{"beta", "Alpha", "alpha2", "Gamma"}, []string{"Alpha", "alpha2", "beta", "Gamma"}},
		{"absent first", []any{"b", nil, "a"}, []string{"", "a", "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records := make([]Record, len(tc.values))
			for i, v := range tc.values {
				records[i] = Record{"id": fmt.Sprint(i), "val": v}
			}
			e := NewTableEngine()
			mustBind(t, e, records, []Column{{Key: "val", Sortable: true}}, 10)
			e.SortBy("val")
			var got []string
			for _, rec := range e.Filtered() {
				got = append(got, stringify(rec["val"]))
			}
			if !slices.Equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSearchTermKeepsSurroundingSpaces(t *testing.T) {
	records := []Record{
		{"id": "1", "vendor": "x"},
		{"id": "2", "vendor": "Acme x Ltd"},
	}
	e := NewTableEngine()
	mustBind(t, e, records, []Column{{Key: "vendor"}}, 10)
	e.SetSearchTerm(" x")
	if got := e.Filtered(); len(got) != 1 || got[0].String("id") != "2" {
		t.Fatalf("expected only the record containing %q, got %#v", " x", got)
	}
}

func TestSearchKeepsActiveSort(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(12), numberedColumns, 10)
	e.SortBy("seq")
	e.SortBy("seq")
	e.SetSearchTerm("DOC-1")
	got := amountsOf(e.Filtered(), "seq")
	if !slices.Equal(got, []float64{12, 11, 10}) {
		t.Fatalf("expected descending filtered results, got %v", got)
	}
}

func TestGoToPageOutOfRangeIsNoop(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(23), numberedColumns, 10)
	before := e.State()
	for _, n := range []int{0, -1, 4, 100} {
		e.GoToPage(n)
		if e.State() != before {
			t.Fatalf("GoToPage(%d) changed state to %+v", n, e.State())
		}
	}
}

func TestPaginationScenario(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(23), numberedColumns, 10)
	if e.TotalPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", e.TotalPages())
	}
	e.GoToPage(2)
	if got := e.DisplayRange(); got != "11-20" {
		t.Fatalf("expected 11-20, got %s", got)
	}
	if got := slices.Collect(e.VisiblePageNumbers()); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("expected [1 2 3], got %v", got)
	}
	if page := e.Page(); len(page) != 10 || page[0]["id"] != "DOC-11" {
		t.Fatalf("unexpected page contents %v", page)
	}
	e.GoToPage(3)
	if got := e.DisplayRange(); got != "21-23" {
		t.Fatalf("expected 21-23, got %s", got)
	}
	if len(e.Page()) != 3 {
		t.Fatalf("expected 3 rows on last page, got %d", len(e.Page()))
	}
}

func TestVisiblePageNumbersWindow(t *testing.T) {
	cases := []struct {
		page int
		want []int
	}{
		{1, []int{1, 2, 3, 4, 5}},
		{2, []int{1, 2, 3, 4, 5}},
		{5, []int{3, 4, 5, 6, 7}},
		{9, []int{6, 7, 8, 9, 10}},
		{10, []int{6, 7, 8, 9, 10}},
	}
	for _, tc := range cases {
		e := NewTableEngine()
		mustBind(t, e, numberedRecords(100), numberedColumns, 10)
		e.GoToPage(tc.page)
		seq := e.VisiblePageNumbers()
		if got := slices.Collect(seq); !slices.Equal(got, tc.want) {
			t.Fatalf("page %d: expected %v, got %v", tc.page, tc.want, got)
		}
		if again := slices.Collect(seq); !slices.Equal(again, tc.want) {
			t.Fatalf("page %d: sequence not restartable, got %v", tc.page, again)
		}
	}
}

func TestVisiblePageNumbersEmpty(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, nil, numberedColumns, 10)
	if got := slices.Collect(e.VisiblePageNumbers()); len(got) != 0 {
		t.Fatalf("expected no pages, got %v", got)
	}
}

func TestDisplayRangeEmpty(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(4), numberedColumns, 10)
	e.SetSearchTerm("no such value")
	if e.DisplayRange() != "0-0" {
		t.Fatalf("expected 0-0, got %s", e.DisplayRange())
	}
	if e.TotalPages() != 0 || e.CurrentPage() != 1 {
		t.Fatalf("expected degenerate single empty page, got total=%d current=%d", e.TotalPages(), e.CurrentPage())
	}
	if e.Page() != nil {
		t.Fatalf("expected empty page")
	}
}

func TestRequestDownloadEmitsEvent(t *testing.T) {
	e := NewTableEngine()
	if err := e.Bind([]Record{{"invoiceNumber": "9000001"}}, []Column{{Key: "invoiceNumber"}}, 10, true); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	var got []DownloadRequest
	cancel := e.OnDownload(func(req DownloadRequest) { got = append(got, req) })
	defer cancel()

	req, ok := e.RequestDownload(e.Page()[0].DownloadKey())
	if !ok || req.DocumentID != "9000001" {
		t.Fatalf("unexpected request %+v ok=%v", req, ok)
	}
	if len(got) != 1 || got[0].DocumentID != "9000001" {
		t.Fatalf("expected one event, got %v", got)
	}
}

func TestRequestDownloadDisabled(t *testing.T) {
	e := NewTableEngine()
	mustBind(t, e, numberedRecords(1), numberedColumns, 10)
	calls := 0
	e.OnDownload(func(DownloadRequest) { calls++ })
	if _, ok := e.RequestDownload("DOC-01"); ok || calls != 0 {
		t.Fatalf("expected download to be ignored when disabled")
	}
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	e := NewTableEngine()
	var states []TableState
	cancel := e.Subscribe(func(s TableState) { states = append(states, s) })
	mustBind(t, e, numberedRecords(25), numberedColumns, 10)
	e.GoToPage(2)
	e.GoToPage(9)
	e.SortBy("seq")
	cancel()
	e.SetSearchTerm("x")

	if len(states) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(states))
	}
	if states[1].CurrentPage != 2 || states[2].SortKey != "seq" {
		t.Fatalf("unexpected notifications %+v", states)
	}
}

func TestDownloadKeyFallsBackToID(t *testing.T) {
	if got := (Record{"id": "A1"}).DownloadKey(); got != "A1" {
		t.Fatalf("expected id fallback, got %s", got)
	}
	if got := (Record{"id": "A1", "invoiceNumber": "INV"}).DownloadKey(); got != "INV" {
		t.Fatalf("expected invoice number, got %s", got)
	}
}

func amounts(records []Record) []float64 {
	return amountsOf(records, "amt")
}

func amountsOf(records []Record, key string) []float64 {
	out := make([]float64, len(records))
	for i, rec := range records {
		out[i], _ = rec.Float(key)
	}
	return out
}
