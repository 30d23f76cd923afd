package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ettle/strcase"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

const (
	defaultCurrency  = "INR"
	agingThreshold   = 30
	outboundDelivery = "Outbound delivery"
)

type reshaper func(raw []map[string]any) []portal.Record

var reshapers = map[portal.SectionID]reshaper{
	portal.SectionInquiry:  func(raw []map[string]any) []portal.Record { return mapRecords(raw, orderRecord("Inquiry Item", "inquiryNumber")) },
	portal.SectionSales:    func(raw []map[string]any) []portal.Record { return mapRecords(raw, orderRecord("Sales Order", "salesNumber")) },
	portal.SectionDelivery: func(raw []map[string]any) []portal.Record { return mapRecords(raw, deliveryRecord) },
	portal.SectionInvoice:  invoiceRecords,
	portal.SectionPayment:  func(raw []map[string]any) []portal.Record { return mapRecords(raw, paymentRecord) },
	portal.SectionMemo:     func(raw []map[string]any) []portal.Record { return mapRecords(raw, memoRecord) },
}

// Reshape converts raw backend rows of section into flat display records.
func Reshape(section portal.SectionID, raw []map[string]any) ([]portal.Record, error) {
	fn, ok := reshapers[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", portal.ErrUnknownSection, section)
	}
	return fn(raw), nil
}

func mapRecords(raw []map[string]any, fn func(map[string]any) portal.Record) []portal.Record {
	out := make([]portal.Record, 0, len(raw))
	for _, item := range raw {
		out = append(out, fn(item))
	}
	return out
}

func orderRecord(fallbackDescription, numberKey string) func(map[string]any) portal.Record {
	return func(item map[string]any) portal.Record {
		return portal.Record{
			"id":          text(item, "VBELN"),
			numberKey:     text(item, "VBELN"),
			"description": textOr(item, "ARKTX", fallbackDescription),
			"requestDate": sapDate(item["ERDAT"]),
			"dueDate":     sapDate(item["BNDDT"]),
			"issueDate":   sapDate(item["ANGDT"]),
			"status":      "Pending",
			"amount":      number(item["NETWR"]),
			"currency":    textOr(item, "WAERK", defaultCurrency),
			"material":    trimmedNumber(item["MATNR"]),
			"quantity":    number(item["POSNR"]),
			"unit":        text(item, "VRKME"),
		}
	}
}

func deliveryRecord(item map[string]any) portal.Record {
	deliveryType := text(item, "deliveryType")
	if deliveryType == "LF" {
		deliveryType = outboundDelivery
	}
	return portal.Record{
		"deliveryNumber": text(item, "deliveryNumber"),
		"createdBy":      text(item, "createdBy"),
		"deliveryDate":   sapDate(item["deliveryDate"]),
		"shippingPoint":  trimmedNumber(item["shippingPoint"]),
		"deliveryType":   deliveryType,
		"position":       trimmedNumber(item["position"]),
		"material":       trimmedNumber(item["material"]),
		"description":    text(item, "description"),
		"quantity":       number(item["quantity"]),
	}
}

// invoiceRecords keeps the first row of every invoice number.
func invoiceRecords(raw []map[string]any) []portal.Record {
	seen := map[string]bool{}
	out := make([]portal.Record, 0, len(raw))
	for _, item := range raw {
		invoiceNo := text(item, "invoiceNo")
		if seen[invoiceNo] {
			continue
		}
		seen[invoiceNo] = true
		out = append(out, portal.Record{
			"id":            invoiceNo,
			"invoiceNumber": invoiceNo,
			"itemNo":        trimmedNumber(item["itemNo"]),
			"customerId":    text(item, "customerId"),
			"customerName":  text(item, "customerName"),
			"billDate":      sapDate(item["billDate"]),
			"currency":      text(item, "currency"),
			"street":        text(item, "street"),
			"city":          text(item, "city"),
			"country":       text(item, "country"),
			"material":      text(item, "material"),
			"itemName":      text(item, "itemName"),
			"postalCode":    text(item, "postalCode"),
			"itemPrice":     number(item["itemPrice"]),
		})
	}
	return out
}

func paymentRecord(item map[string]any) portal.Record {
	status := "Completed"
	if number(item["aging"]) > agingThreshold {
		status = "Processing"
	}
	invoiceNo := text(item, "invoiceNo")
	return portal.Record{
		"id":            invoiceNo,
		"paymentId":     invoiceNo,
		"invoiceNumber": invoiceNo,
		"paymentDate":   sapDate(item["billDate"]),
		"dueDate":       sapDate(item["dueDate"]),
		"amount":        number(item["itemPrice"]),
		"currency":      text(item, "currency"),
		"status":        status,
	}
}

func memoRecord(item map[string]any) portal.Record {
	var memoType string
	switch text(item, "memoType") {
	case "L2":
		memoType = "Debited"
	case "G2":
		memoType = "Credited"
	}
	return portal.Record{
		"customerId":   strings.TrimLeft(text(item, "customerId"), "0"),
		"customerName": text(item, "customerName"),
		"billingDate":  sapDate(item["billingDate"]),
		"itemPrice":    number(item["itemPrice"]),
		"currency":     text(item, "currency"),
		"materialNo":   strings.TrimLeft(text(item, "materialNo"), "0"),
		"description":  text(item, "description"),
		"documentNo":   text(item, "documentNo"),
		"memoType":     memoType,
	}
}

// OverallRecords maps the aggregate rows onto camel-cased keys, so
// Total_Orders becomes totalOrders.
func OverallRecords(raw []map[string]any) []portal.Record {
	out := make([]portal.Record, 0, len(raw))
	for _, item := range raw {
		rec := make(portal.Record, len(item))
		for key, value := range item {
			if n, ok := value.(json.Number); ok {
				value = number(n)
			}
			rec[strcase.ToCamel(key)] = value
		}
		out = append(out, rec)
	}
	return out
}

func text(item map[string]any, key string) string {
	return stringOf(item[key])
}

func stringOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func textOr(item map[string]any, key, fallback string) string {
	if v := text(item, key); v != "" {
		return v
	}
	return fallback
}

// number parses v as a float, treating anything unparsable as zero.
func number(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// trimmedNumber drops leading zeros from SAP identifiers like "000120" and
// returns the integer when the rest is numeric.
func trimmedNumber(v any) any {
	var s string
	switch n := v.(type) {
	case nil:
		return nil
	case json.Number:
		s = n.String()
	default:
		s = strings.TrimSpace(fmt.Sprint(n))
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		if s == "" {
			return nil
		}
		return 0
	}
	if i, err := strconv.Atoi(trimmed); err == nil {
		return i
	}
	return trimmed
}

// sapDate normalizes SAP date strings. Empty and all-zero dates become nil so
// they render as blank cells.
func sapDate(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	switch s {
	case "", "00000000", "0000-00-00":
		return nil
	}
	return s
}
