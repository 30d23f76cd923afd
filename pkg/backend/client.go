package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

const (
	// DefaultTimeout bounds every backend request.
	DefaultTimeout = 15 * time.Second
	loginSuccess   = "Login successful."
	maxBodyBytes   = 32 << 20
)

var sectionPaths = map[portal.SectionID]string{
	portal.SectionInquiry:  "/inquiry",
	portal.SectionSales:    "/sales",
	portal.SectionDelivery: "/delivery",
	portal.SectionInvoice:  "/invoice",
	portal.SectionPayment:  "/aging",
	portal.SectionMemo:     "/memo",
}

// Config configures the backend client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Tracer     trace.Tracer
}

// Client talks to the procurement backend. It implements portal.Gateway and
// portal.Authenticator.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
	schemas envelopeSchemas
}

var (
	_ portal.Gateway       = (*Client)(nil)
	_ portal.Authenticator = (*Client)(nil)
)

// New builds a client for cfg.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend: base url is required")
	}
	schemas, err := compileEnvelopeSchemas()
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("vendor-portal/backend")
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    httpClient,
		logger:  logger,
		tracer:  tracer,
		schemas: schemas,
	}, nil
}

type dataEnvelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    []map[string]any `json:"data"`
}

type customerRequest struct {
	CustomerID string `json:"CUSTOMER_ID"`
}

// FetchSection loads and reshapes the rows of a tabular section.
func (c *Client) FetchSection(ctx context.Context, section portal.SectionID, customerID string) ([]portal.Record, error) {
	path, ok := sectionPaths[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", portal.ErrUnknownSection, section)
	}
	raw, err := c.fetchData(ctx, path, customerID)
	if err != nil {
		return nil, err
	}
	return Reshape(section, raw)
}

// FetchOverall loads the aggregate rows of the overall section.
func (c *Client) FetchOverall(ctx context.Context, customerID string) ([]portal.Record, error) {
	raw, err := c.fetchData(ctx, "/overall", customerID)
	if err != nil {
		return nil, err
	}
	return OverallRecords(raw), nil
}

func (c *Client) fetchData(ctx context.Context, path, customerID string) ([]map[string]any, error) {
	var env dataEnvelope
	if err := c.post(ctx, path, customerRequest{CustomerID: customerID}, c.schemas.data, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s reported success=false %s", portal.ErrFetchFailure, path, env.Message)
	}
	return env.Data, nil
}

type pdfRequest struct {
	DocumentID string `json:"IV_VBELN"`
}

type pdfEnvelope struct {
	Success bool   `json:"success"`
	Base64  string `json:"base64"`
}

// FetchInvoicePDF requests the base64 PDF of an invoice. A success=false
// response is returned as a payload for the caller to reject.
func (c *Client) FetchInvoicePDF(ctx context.Context, documentID string) (portal.PDFPayload, error) {
	var env pdfEnvelope
	if err := c.post(ctx, "/pdf", pdfRequest{DocumentID: documentID}, c.schemas.pdf, &env); err != nil {
		return portal.PDFPayload{}, err
	}
	return portal.PDFPayload{Success: env.Success, Base64: env.Base64}, nil
}

type loginRequest struct {
	CustomerID string `json:"CUSTOMER_ID"`
	Password   string `json:"PASSWORD"`
}

type loginEnvelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	CustomerID any    `json:"customerId"`
}

// Login verifies vendor credentials. Only a success response carrying the
// exact confirmation message and a customer id is accepted.
func (c *Client) Login(ctx context.Context, vendorID, password string) (string, error) {
	var env loginEnvelope
	req := loginRequest{CustomerID: portal.PadCustomerID(vendorID), Password: password}
	if err := c.post(ctx, "/login", req, c.schemas.login, &env); err != nil {
		return "", err
	}
	customerID := stringOf(env.CustomerID)
	if !env.Success || env.Message != loginSuccess || customerID == "" {
		message := env.Message
		if message == "" {
			message = "Login failed. Please check your credentials."
		}
		return "", fmt.Errorf("%w: %s", portal.ErrInvalidCredentials, message)
	}
	return customerID, nil
}

type profileEnvelope struct {
	Success bool           `json:"success"`
	Profile map[string]any `json:"profile"`
}

// Profile loads the vendor profile of customerID.
func (c *Client) Profile(ctx context.Context, customerID string) (portal.Vendor, error) {
	var env profileEnvelope
	if err := c.post(ctx, "/profile", customerRequest{CustomerID: customerID}, c.schemas.profile, &env); err != nil {
		return portal.Vendor{}, err
	}
	if !env.Success || env.Profile == nil {
		return portal.Vendor{}, fmt.Errorf("%w: profile unavailable for %s", portal.ErrFetchFailure, customerID)
	}
	p := env.Profile
	return portal.Vendor{
		ID:            customerID,
		CustomerID:    text(p, "customerId"),
		Name:          text(p, "name"),
		Address:       text(p, "address"),
		City:          text(p, "city"),
		Region:        text(p, "region"),
		Country:       text(p, "country"),
		Pincode:       text(p, "postalCode"),
		Email:         text(p, "email"),
		Phone:         text(p, "phone"),
		AddressNumber: text(p, "addressNumber"),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any, schema *jsonschema.Schema, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "backend.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("backend.path", path)),
	)
	start := time.Now()
	defer func() {
		span.SetAttributes(attribute.Int64("duration_ms", time.Since(start).Milliseconds()))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("backend: encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("backend: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %s: %w", portal.ErrFetchFailure, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %w", portal.ErrFetchFailure, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.WarnContext(ctx, "backend returned error status", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s: status %d", portal.ErrFetchFailure, path, resp.StatusCode)
	}
	if err := validateEnvelope(schema, raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", portal.ErrFetchFailure, path, err)
	}
	c.logger.DebugContext(ctx, "backend request completed", "path", path, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
