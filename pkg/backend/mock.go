package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

// Mock serves canned backend rows in the raw wire shape. It lets the portal
// run without a procurement backend.
type Mock struct {
	rows    map[portal.SectionID][]map[string]any
	overall []map[string]any
	vendor  portal.Vendor
}

var (
	_ portal.Gateway       = (*Mock)(nil)
	_ portal.Authenticator = (*Mock)(nil)
)

// NewMock returns a Mock preloaded with demo data.
func NewMock() *Mock {
	return &Mock{
		rows: map[portal.SectionID][]map[string]any{
			portal.SectionInquiry: {
				{"VBELN": "0010000001", "ARKTX": "Steel bolts M8", "ERDAT": "20240301", "BNDDT": "20240331", "ANGDT": "20240302", "NETWR": "12500.00", "WAERK": "INR", "MATNR": "000000000000100234", "POSNR": "000010", "VRKME": "EA"},
				{"VBELN": "0010000002", "ERDAT": "20240305", "BNDDT": "00000000", "ANGDT": "20240306", "NETWR": "4800.50", "MATNR": "000000000000100240", "POSNR": "000020", "VRKME": "KG"},
			},
			portal.SectionSales: {
				{"VBELN": "0020000011", "ARKTX": "Hex nuts M8", "ERDAT": "20240310", "BNDDT": "0000-00-00", "ANGDT": "20240311", "NETWR": "9800", "WAERK": "INR", "MATNR": "000000000000100310", "POSNR": "000010", "VRKME": "EA"},
				{"VBELN": "0020000012", "ARKTX": "Washers", "ERDAT": "20240312", "NETWR": "1200", "WAERK": "INR", "MATNR": "000000000000100311", "POSNR": "000020", "VRKME": "EA"},
				{"VBELN": "0020000013", "ARKTX": "Anchor plates", "ERDAT": "20240315", "NETWR": "56000", "WAERK": "INR", "MATNR": "000000000000100312", "POSNR": "000030", "VRKME": "EA"},
			},
			portal.SectionDelivery: {
				{"deliveryNumber": "0080000101", "createdBy": "WHUSER", "deliveryDate": "2024-03-18", "shippingPoint": "0001", "deliveryType": "LF", "position": "000010", "material": "000000000000100310", "description": "Hex nuts M8", "quantity": 500},
			},
			portal.SectionInvoice: {
				{"invoiceNo": "0090000201", "itemNo": "000010", "customerId": "0000001234", "customerName": "Demo Vendor Ltd", "billDate": "20240320", "currency": "INR", "street": "MG Road 12", "city": "Pune", "country": "IN", "material": "100310", "itemName": "Hex nuts M8", "postalCode": "411001", "itemPrice": 9800},
				{"invoiceNo": "0090000201", "itemNo": "000020", "customerId": "0000001234", "customerName": "Demo Vendor Ltd", "billDate": "20240320", "currency": "INR", "material": "100311", "itemName": "Washers", "itemPrice": 1200},
				{"invoiceNo": "0090000202", "itemNo": "000010", "customerId": "0000001234", "customerName": "Demo Vendor Ltd", "billDate": "20240325", "currency": "INR", "city": "Pune", "country": "IN", "material": "100312", "itemName": "Anchor plates", "postalCode": "411001", "itemPrice": 56000},
			},
			portal.SectionPayment: {
				{"invoiceNo": "0090000201", "billDate": "2024-03-20", "dueDate": "2024-04-19", "itemPrice": 11000, "currency": "INR", "aging": 12},
				{"invoiceNo": "0090000202", "billDate": "2024-03-25", "dueDate": "2024-04-24", "itemPrice": 56000, "currency": "INR", "aging": 45},
			},
			portal.SectionMemo: {
				{"customerId": "0000001234", "customerName": "Demo Vendor Ltd", "billingDate": "20240328", "itemPrice": 750, "currency": "INR", "materialNo": "000000000000100311", "description": "Short delivery", "documentNo": "0070000301", "memoType": "G2"},
				{"customerId": "0000001234", "customerName": "Demo Vendor Ltd", "billingDate": "20240329", "itemPrice": 300, "currency": "INR", "materialNo": "000000000000100310", "description": "Freight surcharge", "documentNo": "0070000302", "memoType": "L2"},
			},
		},
		overall: []map[string]any{
			{"Total_Orders": 3, "Total_Sales": 67000, "Total_Invoices": 2, "Total_Payments": 67000, "Best_Payment": 56000, "Currency": "INR"},
		},
		vendor: portal.Vendor{
			CustomerID:    "1234",
			Name:          "Demo Vendor Ltd",
			Address:       "MG Road 12",
			City:          "Pune",
			Region:        "MH",
			Country:       "IN",
			Pincode:       "411001",
			Email:         "accounts@demo-vendor.example",
			AddressNumber: "0000022001",
		},
	}
}

// FetchSection returns the canned rows of section.
func (m *Mock) FetchSection(_ context.Context, section portal.SectionID, _ string) ([]portal.Record, error) {
	return Reshape(section, m.rows[section])
}

// FetchOverall returns the canned aggregate.
func (m *Mock) FetchOverall(context.Context, string) ([]portal.Record, error) {
	return OverallRecords(m.overall), nil
}

// FetchInvoicePDF returns a minimal PDF naming documentID.
func (m *Mock) FetchInvoicePDF(_ context.Context, documentID string) (portal.PDFPayload, error) {
	doc := fmt.Sprintf("%%PDF-1.4\n%% Invoice %s\n%%%%EOF\n", documentID)
	return portal.PDFPayload{Success: true, Base64: base64.StdEncoding.EncodeToString([]byte(doc))}, nil
}

// Login accepts any non-empty password and returns the vendor id.
func (m *Mock) Login(_ context.Context, vendorID, password string) (string, error) {
	vendorID = strings.TrimLeft(strings.TrimSpace(vendorID), "0")
	if vendorID == "" || password == "" {
		return "", portal.ErrInvalidCredentials
	}
	return vendorID, nil
}

// Profile returns the demo vendor.
func (m *Mock) Profile(_ context.Context, customerID string) (portal.Vendor, error) {
	vendor := m.vendor
	vendor.ID = customerID
	return vendor, nil
}
