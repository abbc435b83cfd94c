package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"

	"supermarket-dashboard/internal/charts"
	"supermarket-dashboard/internal/models"
)

const (
	datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"
	chartJSSrc  = "https://cdn.jsdelivr.net/npm/chart.js@4.4.4/dist/chart.umd.min.js"
	chartsPath  = "/sse/charts"
)

// DashboardView carries what the page needs to seed its controls.
type DashboardView struct {
	SessionID string
	Cities    []string
	Selection models.FilterSelection
}

type slot struct {
	id    string
	class string
}

var (
	topRow  = []slot{{charts.SlotCity, "compact"}, {charts.SlotGender, "compact"}, {charts.SlotPayment, "compact"}}
	wideRow = []slot{{charts.SlotDate, "wide"}, {charts.SlotProductLine, "wide"}}
)

// Dashboard renders the full page. The chart payload lives in the _charts
// signal, which Datastar keeps out of the requests it sends back.
func Dashboard(view DashboardView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return page(view).Render(w)
	})
}

func page(view DashboardView) gomponents.Node {
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				html.TitleEl(gomponents.Text("Supermarket Sales Dashboard")),
				html.StyleEl(gomponents.Raw(stylesheet)),
				html.Script(html.Src(chartJSSrc)),
				html.Script(gomponents.Raw(chartScript)),
				html.Script(html.Type("module"), html.Src(datastarSrc)),
			),
			html.Body(
				data.Signals(map[string]any{
					"sessionId": view.SessionID,
					"cities":    view.Selection.Cities,
					"metric":    view.Selection.Metric.String(),
					"_charts":   map[string]any{},
				}),
				gomponents.Attr("data-init", "@get('"+chartsPath+"')"),
				gomponents.Attr("data-effect", "window.renderDashboard && window.renderDashboard($_charts)"),
				html.Main(
					html.Class("layout"),
					controls(view),
					html.Section(
						html.Class("charts"),
						html.Div(html.Class("row"), gomponents.Map(topRow, chartCard)),
						gomponents.Map(wideRow, func(s slot) gomponents.Node {
							return html.Div(html.Class("row"), chartCard(s))
						}),
					),
				),
			),
		),
	)
}

func controls(view DashboardView) gomponents.Node {
	return html.Aside(
		html.Class("card sidebar"),
		gomponents.Attr("data-on:change", "@get('"+chartsPath+"')"),
		html.H2(gomponents.Text("Supermarket Sales")),
		html.Hr(),
		html.H5(gomponents.Text("Cities:")),
		html.Div(
			html.ID("city-list"),
			gomponents.Map(view.Cities, func(city string) gomponents.Node {
				return html.Label(
					html.Class("option"),
					html.Input(html.Type("checkbox"), html.Name("cities"), html.Value(city), data.Bind("cities")),
					gomponents.Text(" "+city),
				)
			}),
		),
		html.H5(html.Class("spaced"), gomponents.Text("Analysis:")),
		html.Div(
			html.ID("metric-list"),
			gomponents.Map(models.Metrics(), func(m models.Metric) gomponents.Node {
				return html.Label(
					html.Class("option"),
					html.Input(html.Type("radio"), html.Name("metric"), html.Value(m.String()), data.Bind("metric")),
					gomponents.Text(" "+m.Label()),
				)
			}),
		),
		html.P(html.ID("status"), html.Class("muted"), gomponents.Text("Loading…")),
	)
}

func chartCard(s slot) gomponents.Node {
	return html.Div(
		html.Class("card chart "+s.class),
		html.Canvas(html.ID("chart-"+s.id)),
		html.A(
			html.Class("export"),
			html.Target("_blank"),
			html.Href("/charts/"+s.id+".svg"),
			gomponents.Attr("data-attr:href", svgHrefExpr(s.id)),
			gomponents.Text("SVG"),
		),
	)
}

func svgHrefExpr(id string) string {
	return "'/charts/" + id + ".svg?metric=' + $metric + ($cities.length ? $cities.map(c => '&city=' + encodeURIComponent(c)).join('') : '&city=')"
}
