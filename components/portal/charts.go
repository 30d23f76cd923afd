package portal

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "300px"

// OverviewCharts is the rendered markup of the overall section.
type OverviewCharts struct {
	PieHTML string
	BarHTML string
}

// ChartRenderer renders the overall summaries as server-side ECharts markup.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
	height     string
}

// ChartOption customizes a ChartRenderer.
type ChartOption func(*ChartRenderer)

// WithChartCache injects a render cache.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the ECharts theme (defaults to Westeros).
func WithChartTheme(theme string) ChartOption {
	return func(r *ChartRenderer) {
		if theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// NewChartRenderer builds a renderer with a five minute cache.
func NewChartRenderer(opts ...ChartOption) *ChartRenderer {
	r := &ChartRenderer{
		cache:  NewChartCache(5 * time.Minute),
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderOverview renders the pie and bar charts for o.
func (r *ChartRenderer) RenderOverview(o Overview) (OverviewCharts, error) {
	pie, err := r.RenderPie("Orders vs Invoices", o.PiePoints())
	if err != nil {
		return OverviewCharts{}, fmt.Errorf("portal: render pie chart: %w", err)
	}
	title := "Financial Overview"
	if o.Currency != "" {
		title = fmt.Sprintf("Financial Overview (%s)", o.Currency)
	}
	bar, err := r.RenderBar(title, "Financial Data", o.BarPoints())
	if err != nil {
		return OverviewCharts{}, fmt.Errorf("portal: render bar chart: %w", err)
	}
	return OverviewCharts{PieHTML: pie, BarHTML: bar}, nil
}

// RenderPie renders points as a pie chart.
func (r *ChartRenderer) RenderPie(title string, points []ChartPoint) (string, error) {
	render := func() (string, error) {
		pie := charts.NewPie()
		pie.SetGlobalOptions(r.globalOptions(title,
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Orient: "vertical", Right: "0"}),
		)...)
		pie.AddSeries(title, toPieData(points))
		return renderChart(pie)
	}
	return r.cached(chartKey("pie", []any{title, r.theme, points}), render)
}

// RenderBar renders points as a single-series bar chart.
func (r *ChartRenderer) RenderBar(title, series string, points []ChartPoint) (string, error) {
	render := func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalOptions(title,
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		)...)
		labels := make([]string, len(points))
		for i, point := range points {
			labels[i] = point.Label
		}
		bar.SetXAxis(labels)
		bar.AddSeries(series, toBarData(points))
		return renderChart(bar)
	}
	return r.cached(chartKey("bar", []any{title, series, r.theme, points}), render)
}

func (r *ChartRenderer) cached(key string, render func() (string, error)) (string, error) {
	if r.cache == nil {
		return render()
	}
	return r.cache.GetOrRender(key, render)
}

func (r *ChartRenderer) globalOptions(title string, extra ...charts.GlobalOpts) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return append([]charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}, extra...)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toPieData(points []ChartPoint) []opts.PieData {
	data := make([]opts.PieData, len(points))
	for i, point := range points {
		data[i] = opts.PieData{Name: point.Label, Value: point.Value}
		if point.Color != "" {
			data[i].ItemStyle = &opts.ItemStyle{Color: point.Color}
		}
	}
	return data
}

func toBarData(points []ChartPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, point := range points {
		data[i] = opts.BarData{Name: point.Label, Value: point.Value}
		if point.Color != "" {
			data[i].ItemStyle = &opts.ItemStyle{Color: point.Color}
		}
	}
	return data
}
