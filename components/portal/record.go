package portal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one row of section data. Values are untyped scalars; only the
// fields a column schema reads are interpreted.
type Record map[string]any

// Value returns the raw value stored under key.
func (r Record) Value(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// String returns the string form of the value stored under key.
func (r Record) String(key string) string {
	return stringify(r[key])
}

// Float returns the numeric value stored under key.
func (r Record) Float(key string) (float64, bool) {
	return numericValue(r[key])
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// DownloadKey returns the identifier used to request a document download:
// the invoice number, or the id when no invoice number is present.
func (r Record) DownloadKey() string {
	if key := r.String("invoiceNumber"); key != "" {
		return key
	}
	return r.String("id")
}

// matches reports whether any field's string form contains the lowered term.
func (r Record) matches(lowered string) bool {
	for _, v := range r {
		if strings.Contains(strings.ToLower(stringify(v)), lowered) {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case time.Time:
		return val.Format(time.DateOnly)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
