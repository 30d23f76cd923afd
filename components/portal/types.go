package portal

import (
	"context"
	"errors"
)

// ColumnType selects how a cell value is formatted.
type ColumnType string

const (
	ColumnText     ColumnType = "text"
	ColumnNumber   ColumnType = "number"
	ColumnDate     ColumnType = "date"
	ColumnCurrency ColumnType = "currency"
	ColumnStatus   ColumnType = "status"
)

// Valid reports whether the column type is one of the known types. The empty
// type is valid and behaves like ColumnText.
func (t ColumnType) Valid() bool {
	switch t {
	case "", ColumnText, ColumnNumber, ColumnDate, ColumnCurrency, ColumnStatus:
		return true
	default:
		return false
	}
}

// Column describes a single table column. Keys are unique within a schema.
type Column struct {
	Key      string     `json:"key" yaml:"key"`
	Label    string     `json:"label" yaml:"label"`
	Type     ColumnType `json:"type,omitempty" yaml:"type,omitempty"`
	Sortable bool       `json:"sortable,omitempty" yaml:"sortable,omitempty"`
}

// SectionID names a category of vendor data selectable from navigation.
type SectionID string

const (
	SectionDashboard SectionID = "dashboard"
	SectionInquiry   SectionID = "inquiry"
	SectionSales     SectionID = "sales"
	SectionDelivery  SectionID = "delivery"
	SectionInvoice   SectionID = "invoice"
	SectionPayment   SectionID = "payment"
	SectionMemo      SectionID = "memo"
	SectionOverall   SectionID = "overall"
	SectionProfile   SectionID = "profile"
)

// TabularSections lists the sections rendered through the data table.
var TabularSections = []SectionID{
	SectionInquiry,
	SectionSales,
	SectionDelivery,
	SectionInvoice,
	SectionPayment,
	SectionMemo,
}

// Vendor is the read-only identity of the signed-in vendor.
type Vendor struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customerId"`
	Name          string `json:"name"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city"`
	Region        string `json:"region,omitempty"`
	Country       string `json:"country"`
	Pincode       string `json:"pincode"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	AddressNumber string `json:"addressNumber,omitempty"`
}

// PDFPayload is the backend response for a document download.
type PDFPayload struct {
	Success bool
	Base64  string
}

// Gateway fetches raw section data from the procurement backend. Records are
// already reshaped into flat display records.
type Gateway interface {
	FetchSection(ctx context.Context, section SectionID, customerID string) ([]Record, error)
	FetchOverall(ctx context.Context, customerID string) ([]Record, error)
	FetchInvoicePDF(ctx context.Context, documentID string) (PDFPayload, error)
}

var (
	// ErrFetchFailure covers transport errors and success=false envelopes.
	ErrFetchFailure = errors.New("portal: fetch failed")
	// ErrMalformedAggregate is returned when the overall endpoint yields no usable record.
	ErrMalformedAggregate = errors.New("portal: malformed aggregate data")
	// ErrInvalidPDFPayload is returned when a PDF response lacks a decodable payload.
	ErrInvalidPDFPayload = errors.New("portal: invalid pdf payload")
	// ErrInvalidPageSize signals a caller contract violation on Bind.
	ErrInvalidPageSize = errors.New("portal: page size must be positive")
	// ErrUnknownSection is returned when a section id is not in the catalog.
	ErrUnknownSection = errors.New("portal: unknown section")
	// ErrUnauthenticated is returned when an operation needs a signed-in session.
	ErrUnauthenticated = errors.New("portal: not authenticated")
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("portal: invalid credentials")
)
