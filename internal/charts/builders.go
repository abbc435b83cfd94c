package charts

import "supermarket-dashboard/internal/models"

var palette = []string{
	"#375a7f", "#00bc8c", "#f39c12", "#e74c3c", "#3498db",
	"#6f42c1", "#e83e8c", "#fd7e14", "#20c997", "#adb5bd",
}

var defaultMargin = Margin{Left: 0, Right: 0, Top: 20, Bottom: 20}

func layoutFor(role Role) Layout {
	height := CompactHeight
	if role == RoleWide {
		height = WideHeight
	}
	return Layout{Role: role, Height: height, Margin: defaultMargin, Theme: Theme}
}

func BuildCityChart(rows []models.AggregateRow, metric models.Metric) ChartSpec {
	return ChartSpec{
		ID:          SlotCity,
		Title:       metric.Label() + " by city",
		Kind:        KindBar,
		Orientation: Vertical,
		BarMode:     BarModeRelative,
		X:           Axis{Field: "city", Title: "City"},
		Y:           Axis{Field: metric.String(), Title: metric.Label()},
		Series:      singleSeries(rows, metric),
		Layout:      layoutFor(RoleCompact),
	}
}

func BuildPaymentChart(rows []models.AggregateRow, metric models.Metric) ChartSpec {
	return ChartSpec{
		ID:          SlotPayment,
		Title:       metric.Label() + " by payment method",
		Kind:        KindBar,
		Orientation: Horizontal,
		BarMode:     BarModeRelative,
		X:           Axis{Field: metric.String(), Title: metric.Label()},
		Y:           Axis{Field: "payment", Title: "Payment"},
		Series:      singleSeries(rows, metric),
		Layout:      layoutFor(RoleCompact),
	}
}

func BuildProductLineChart(rows []models.AggregateRow, metric models.Metric) ChartSpec {
	return ChartSpec{
		ID:          SlotProductLine,
		Title:       metric.Label() + " by product line",
		Kind:        KindBar,
		Orientation: Horizontal,
		BarMode:     BarModeGroup,
		X:           Axis{Field: metric.String(), Title: metric.Label()},
		Y:           Axis{Field: "product_line", Title: "Product line"},
		ColorField:  "city",
		Series:      groupedSeries(rows),
		Layout:      layoutFor(RoleWide),
	}
}

func BuildGenderChart(rows []models.AggregateRow, metric models.Metric) ChartSpec {
	return ChartSpec{
		ID:          SlotGender,
		Title:       metric.Label() + " by gender",
		Kind:        KindBar,
		Orientation: Vertical,
		BarMode:     BarModeGroup,
		X:           Axis{Field: "gender", Title: "Gender"},
		Y:           Axis{Field: metric.String(), Title: metric.Label()},
		ColorField:  "city",
		Series:      groupedSeries(rows),
		Layout:      layoutFor(RoleCompact),
	}
}

func BuildDateChart(rows []models.AggregateRow, metric models.Metric) ChartSpec {
	return ChartSpec{
		ID:          SlotDate,
		Title:       metric.Label() + " by date",
		Kind:        KindBar,
		Orientation: Vertical,
		BarMode:     BarModeRelative,
		X:           Axis{Field: "date", Title: "Date"},
		Y:           Axis{Field: metric.String(), Title: metric.Label()},
		Series:      singleSeries(rows, metric),
		Layout:      layoutFor(RoleWide),
	}
}

// BuildAll maps each of the five tables to its chart.
func BuildAll(tables models.Tables, metric models.Metric) ChartSet {
	return ChartSet{
		City:        BuildCityChart(tables.ByCity, metric),
		Payment:     BuildPaymentChart(tables.ByPayment, metric),
		ProductLine: BuildProductLineChart(tables.ByProductLine, metric),
		Gender:      BuildGenderChart(tables.ByGender, metric),
		Date:        BuildDateChart(tables.ByDate, metric),
	}
}

// An empty table yields zero series, which renders as an empty chart.
func singleSeries(rows []models.AggregateRow, metric models.Metric) []Series {
	if len(rows) == 0 {
		return []Series{}
	}

	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, Point{Label: r.Keys[0], Value: r.Value})
	}
	return []Series{{Name: metric.Label(), Color: palette[0], Points: points}}
}

// groupedSeries splits two-key rows into one series per second key (the city),
// in order of first appearance.
func groupedSeries(rows []models.AggregateRow) []Series {
	series := make([]Series, 0)
	index := make(map[string]int)

	for _, r := range rows {
		name := r.Keys[1]
		i, ok := index[name]
		if !ok {
			i = len(series)
			index[name] = i
			series = append(series, Series{
				Name:  name,
				Color: palette[i%len(palette)],
			})
		}
		series[i].Points = append(series[i].Points, Point{Label: r.Keys[0], Value: r.Value})
	}
	return series
}
