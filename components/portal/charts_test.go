package portal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct {
	entries map[string]string
	renders int
}

func (c *countingCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if html, ok := c.entries[key]; ok {
		return html, nil
	}
	c.renders++
	html, err := render()
	if err != nil {
		return "", err
	}
	c.entries[key] = html
	return html, nil
}

func TestRenderOverviewCharts(t *testing.T) {
	renderer := NewChartRenderer(WithChartCache(nil))
	out, err := renderer.RenderOverview(Overview{
		TotalOrders:   12,
		TotalInvoices: 9,
		TotalSales:    150000,
		TotalPayments: 90000,
		BestPayment:   40000,
		Currency:      "INR",
	})
	require.NoError(t, err)

	assert.Contains(t, out.PieHTML, "echarts")
	assert.Contains(t, out.PieHTML, "Total Orders")
	assert.Contains(t, out.PieHTML, "#FF6384")
	assert.Contains(t, out.BarHTML, "Financial Overview (INR)")
	assert.Contains(t, out.BarHTML, "Best Payment")
}

func TestChartRendererUsesCache(t *testing.T) {
	cache := &countingCache{entries: map[string]string{}}
	renderer := NewChartRenderer(WithChartCache(cache), WithChartTheme("dark"))
	points := Overview{TotalOrders: 1, TotalInvoices: 2}.PiePoints()

	first, err := renderer.RenderPie("Orders vs Invoices", points)
	require.NoError(t, err)
	second, err := renderer.RenderPie("Orders vs Invoices", points)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.renders)

	_, err = renderer.RenderPie("Orders vs Invoices", Overview{TotalOrders: 3}.PiePoints())
	require.NoError(t, err)
	assert.Equal(t, 2, cache.renders)
}

func TestOverviewFromRecords(t *testing.T) {
	o, err := OverviewFromRecords([]Record{{
		KeyTotalOrders:   float64(12),
		KeyTotalInvoices: "9",
		KeyTotalSales:    "not a number",
		KeyBestPayment:   4000,
		KeyCurrency:      "INR",
	}})
	require.NoError(t, err)
	assert.Equal(t, float64(12), o.TotalOrders)
	assert.Equal(t, float64(9), o.TotalInvoices)
	assert.Zero(t, o.TotalSales)
	assert.Zero(t, o.TotalPayments)
	assert.Equal(t, float64(4000), o.BestPayment)
	assert.Equal(t, "INR", o.Currency)

	values := []float64{}
	for _, p := range o.BarPoints() {
		values = append(values, p.Value)
	}
	assert.Equal(t, []float64{0, 0, 4000}, values)
}

func TestOverviewFromRecordsMalformed(t *testing.T) {
	for _, records := range [][]Record{nil, {}, {{}}, {{"unexpected": "x"}}} {
		_, err := OverviewFromRecords(records)
		assert.True(t, errors.Is(err, ErrMalformedAggregate), "records %v", records)
	}
}

type manualTimer struct {
	now uint32
}

func (m *manualTimer) Now() uint32 { return m.now }

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	val1, err := cache.GetOrRender("key", render)
	require.NoError(t, err)
	val2, err := cache.GetOrRender("key", render)
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 1, calls)
}

func TestChartCacheExpires(t *testing.T) {
	timer := &manualTimer{now: 1000}
	cache := NewChartCache(2*time.Second, WithChartCacheTimer(timer))
	calls := 0
	render := func() (string, error) {
		calls++
		return "fresh", nil
	}

	_, err := cache.GetOrRender("key", render)
	require.NoError(t, err)
	timer.now += 5
	_, err = cache.GetOrRender("key", render)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestChartCacheDisabledAndErrors(t *testing.T) {
	cache := NewChartCache(0)
	calls := 0
	render := func() (string, error) {
		calls++
		return "", errors.New("render failed")
	}
	_, err := cache.GetOrRender("key", render)
	require.Error(t, err)
	_, err = cache.GetOrRender("key", render)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}
