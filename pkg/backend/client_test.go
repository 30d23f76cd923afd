package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

type fakeBackend struct {
	mu       sync.Mutex
	bodies   map[string]map[string]any
	apiKeys  []string
	handlers map[string]func(w http.ResponseWriter)
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()
	fb := &fakeBackend{bodies: map[string]map[string]any{}, handlers: map[string]func(http.ResponseWriter){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		fb.mu.Lock()
		fb.bodies[r.URL.Path] = body
		fb.apiKeys = append(fb.apiKeys, r.Header.Get("X-API-Key"))
		handler := fb.handlers[r.URL.Path]
		fb.mu.Unlock()
		if r.Method != http.MethodPost || handler == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w)
	}))
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL + "/api/customer/", APIKey: "secret"})
	require.NoError(t, err)
	return fb, client
}

func (fb *fakeBackend) respond(path, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers["/api/customer"+path] = func(w http.ResponseWriter) { _, _ = w.Write([]byte(body)) }
}

func (fb *fakeBackend) status(path string, code int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers["/api/customer"+path] = func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func (fb *fakeBackend) body(path string) map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.bodies["/api/customer"+path]
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestFetchSectionReshapesRows(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.respond("/aging", `{"success":true,"data":[
		{"invoiceNo":"9001","billDate":"2024-03-20","dueDate":"2024-04-19","itemPrice":1100.5,"currency":"INR","aging":45},
		{"invoiceNo":"9002","billDate":"2024-03-25","dueDate":"2024-04-24","itemPrice":200,"currency":"INR","aging":3}
	]}`)

	records, err := client.FetchSection(context.Background(), portal.SectionPayment, "0000001234")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Processing", records[0]["status"])
	assert.Equal(t, "Completed", records[1]["status"])
	assert.Equal(t, 1100.5, records[0]["amount"])
	assert.Equal(t, "9001", records[0].DownloadKey())
	assert.Equal(t, "0000001234", fb.body("/aging")["CUSTOMER_ID"])
	assert.Contains(t, fb.apiKeys, "secret")
}

func TestFetchSectionFailures(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.respond("/inquiry", `{"success":false,"message":"customer blocked"}`)
	fb.respond("/sales", `{"data":[]}`)
	fb.respond("/delivery", `not json`)
	fb.status("/memo", http.StatusBadGateway)

	for _, section := range []portal.SectionID{portal.SectionInquiry, portal.SectionSales, portal.SectionDelivery, portal.SectionMemo} {
		_, err := client.FetchSection(context.Background(), section, "1")
		assert.ErrorIs(t, err, portal.ErrFetchFailure, "section %s", section)
	}
	_, err := client.FetchSection(context.Background(), portal.SectionOverall, "1")
	assert.ErrorIs(t, err, portal.ErrUnknownSection)
}

func TestFetchSectionTransportError(t *testing.T) {
	client, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	_, err = client.FetchSection(context.Background(), portal.SectionInvoice, "1")
	assert.ErrorIs(t, err, portal.ErrFetchFailure)
}

func TestFetchOverallCamelCasesKeys(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.respond("/overall", `{"success":true,"data":[{"Total_Orders":12,"Total_Sales":"5000.50","Total_Invoices":8,"Total_Payments":4000,"Best_Payment":1500,"Currency":"INR"}]}`)

	records, err := client.FetchOverall(context.Background(), "1")
	require.NoError(t, err)
	overview, err := portal.OverviewFromRecords(records)
	require.NoError(t, err)
	assert.Equal(t, 12.0, overview.TotalOrders)
	assert.Equal(t, 5000.5, overview.TotalSales)
	assert.Equal(t, 1500.0, overview.BestPayment)
	assert.Equal(t, "INR", overview.Currency)
}

func TestFetchInvoicePDF(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.respond("/pdf", `{"success":true,"base64":"JVBERi0xLjQ="}`)

	payload, err := client.FetchInvoicePDF(context.Background(), "9001")
	require.NoError(t, err)
	assert.True(t, payload.Success)
	assert.Equal(t, "9001", fb.body("/pdf")["IV_VBELN"])
	content, err := portal.DecodePDFPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))

	fb.respond("/pdf", `{"success":false}`)
	payload, err = client.FetchInvoicePDF(context.Background(), "9001")
	require.NoError(t, err)
	_, err = portal.DecodePDFPayload(payload)
	assert.ErrorIs(t, err, portal.ErrInvalidPDFPayload)
}

func TestLogin(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.respond("/login", `{"success":true,"message":"Login successful.","customerId":"2"}`)

	id, err := client.Login(context.Background(), "2", "test")
	require.NoError(t, err)
	assert.Equal(t, "2", id)
	assert.Equal(t, "0000000002", fb.body("/login")["CUSTOMER_ID"])
	assert.Equal(t, "test", fb.body("/login")["PASSWORD"])

	fb.respond("/login", `{"success":true,"message":"Welcome","customerId":"2"}`)
	_, err = client.Login(context.Background(), "2", "test")
	assert.ErrorIs(t, err, portal.ErrInvalidCredentials)

	fb.respond("/login", `{"success":false,"message":"Invalid password"}`)
	_, err = client.Login(context.Background(), "2", "bad")
	require.ErrorIs(t, err, portal.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "Invalid password")
}

func TestProfile(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.respond("/profile", `{"success":true,"profile":{"customerId":"2","name":"Acme Supplies","city":"Pune","country":"IN","postalCode":"411001","email":"a@example.com","region":"MH","addressNumber":"22001"}}`)

	vendor, err := client.Profile(context.Background(), "0000000002")
	require.NoError(t, err)
	assert.Equal(t, "0000000002", vendor.ID)
	assert.Equal(t, "Acme Supplies", vendor.Name)
	assert.Equal(t, "411001", vendor.Pincode)

	fb.respond("/profile", `{"success":true}`)
	_, err = client.Profile(context.Background(), "0000000002")
	assert.True(t, errors.Is(err, portal.ErrFetchFailure))
}
