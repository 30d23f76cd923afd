package portal

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// DefaultLocale drives number grouping and date layout.
	DefaultLocale = "en-IN"
	// DefaultCurrencyCode is the single display currency.
	DefaultCurrencyCode = "INR"
	// DefaultCurrencySymbol is prefixed to every currency cell.
	DefaultCurrencySymbol = "₹"
	// DefaultDateLayout renders calendar dates the way en-IN does (d/m/yyyy).
	DefaultDateLayout = "2/1/2006"

	emptyCell = "-"
)

var sapDatePattern = regexp.MustCompile(`^/Date\((-?\d+)\)/$`)

var dateInputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
	"20060102",
}

// Formatter converts raw cell values into display strings.
//
// Currency cells always use the configured currency. Records carry their own
// currency code but it is not consulted; multi-currency data is shown in the
// single display currency.
type Formatter struct {
	locale       string
	currencyCode string
	symbol       string
	dateLayout   string
	printer      *message.Printer
}

// FormatterOption customizes a Formatter.
type FormatterOption func(*Formatter)

// WithLocale sets the BCP 47 locale used for number grouping.
func WithLocale(locale string) FormatterOption {
	return func(f *Formatter) {
		f.locale = locale
	}
}

// WithCurrency sets the display currency code and symbol.
func WithCurrency(code, symbol string) FormatterOption {
	return func(f *Formatter) {
		f.currencyCode = code
		f.symbol = symbol
	}
}

// WithDateLayout overrides the output date layout.
func WithDateLayout(layout string) FormatterOption {
	return func(f *Formatter) {
		f.dateLayout = layout
	}
}

// NewFormatter builds a formatter with en-IN / INR defaults.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		locale:       DefaultLocale,
		currencyCode: DefaultCurrencyCode,
		symbol:       DefaultCurrencySymbol,
		dateLayout:   DefaultDateLayout,
	}
	for _, opt := range opts {
		opt(f)
	}
	tag, err := language.Parse(f.locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
		f.locale = DefaultLocale
	}
	f.printer = message.NewPrinter(tag)
	return f
}

// CurrencyCode returns the configured display currency.
func (f *Formatter) CurrencyCode() string {
	return f.currencyCode
}

// Format renders raw as a display string for the column type. Absent values
// render as "-" regardless of type.
func (f *Formatter) Format(columnType ColumnType, raw any) string {
	if raw == nil {
		return emptyCell
	}
	switch columnType {
	case ColumnCurrency:
		return f.formatCurrency(raw)
	case ColumnDate:
		return f.formatDate(raw)
	case ColumnNumber:
		return f.formatNumber(raw)
	default:
		return stringify(raw)
	}
}

// FormatCell renders the value of column in rec.
func (f *Formatter) FormatCell(col Column, rec Record) string {
	raw, ok := rec.Value(col.Key)
	if !ok {
		return emptyCell
	}
	return f.Format(col.Type, raw)
}

// StatusClass returns the CSS class used for status badges.
func StatusClass(raw any) string {
	return "status-" + strings.ToLower(stringify(raw))
}

// CellClass returns the CSS class for a cell; only status columns carry one.
func CellClass(col Column, raw any) string {
	if col.Type != ColumnStatus {
		return ""
	}
	return StatusClass(raw)
}

func (f *Formatter) formatCurrency(raw any) string {
	v, ok := numericValue(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return stringify(raw)
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

func (f *Formatter) formatNumber(raw any) string {
	v, ok := numericValue(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return stringify(raw)
	}
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

func (f *Formatter) formatDate(raw any) string {
	if t, ok := raw.(time.Time); ok {
		if t.IsZero() {
			return emptyCell
		}
		return t.Format(f.dateLayout)
	}
	s := strings.TrimSpace(stringify(raw))
	if s == "" {
		return emptyCell
	}
	if t, ok := ParseDate(s); ok {
		return t.Format(f.dateLayout)
	}
	return s
}

// ParseDate accepts ISO dates, RFC 3339 timestamps, compact YYYYMMDD dates and
// the /Date(ms)/ form emitted by SAP gateways.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "00000000" || s == "0000-00-00" {
		return time.Time{}, false
	}
	if m := sapDatePattern.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
