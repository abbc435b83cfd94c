package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical rendering of a sale date in aggregate keys.
const DateLayout = "2006-01-02"

type SaleRecord struct {
	City        string
	Payment     string
	ProductLine string
	Gender      string
	Date        time.Time
	Revenue     float64
	Rating      float64
}

var ErrUnknownMetric = errors.New("unknown metric")

// Metric selects both the measured field and how it is reduced.
type Metric int

const (
	MetricRevenue Metric = iota
	MetricRating
)

// Reducer folds the values of one group into a single number. Groups are never empty.
type Reducer func(values []float64) float64

type metricBinding struct {
	name   string
	label  string
	field  func(SaleRecord) float64
	reduce Reducer
}

var metricBindings = [...]metricBinding{
	MetricRevenue: {
		name:   "revenue",
		label:  "Revenue",
		field:  func(r SaleRecord) float64 { return r.Revenue },
		reduce: Sum,
	},
	MetricRating: {
		name:   "rating",
		label:  "Rating",
		field:  func(r SaleRecord) float64 { return r.Rating },
		reduce: Mean,
	},
}

// Metrics lists every metric in selector order.
func Metrics() []Metric {
	return []Metric{MetricRevenue, MetricRating}
}

func ParseMetric(s string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, b := range metricBindings {
		if b.name == key {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

func (m Metric) binding() metricBinding {
	if m < 0 || int(m) >= len(metricBindings) {
		panic(fmt.Sprintf("models: metric %d out of range", int(m)))
	}
	return metricBindings[m]
}

func (m Metric) String() string { return m.binding().name }

// Label is the human-facing axis title.
func (m Metric) Label() string { return m.binding().label }

func (m Metric) Value(r SaleRecord) float64 { return m.binding().field(r) }

func (m Metric) Reduce(values []float64) float64 { return m.binding().reduce(values) }

func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds values in decimal arithmetic so that money totals do not drift.
func Sum(values []float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Div(decimal.NewFromInt(int64(len(values)))).InexactFloat64()
}

type FilterSelection struct {
	Cities []string `json:"cities"`
	Metric Metric   `json:"metric"`
}

// CitySet returns the selected cities as a lookup set.
func (s FilterSelection) CitySet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Cities))
	for _, c := range s.Cities {
		set[c] = struct{}{}
	}
	return set
}

type AggregateRow struct {
	Keys  []string `json:"keys"`
	Value float64  `json:"value"`
	Count int      `json:"count"`
}

type Tables struct {
	ByCity        []AggregateRow `json:"by_city"`
	ByPayment     []AggregateRow `json:"by_payment"`
	ByProductLine []AggregateRow `json:"by_product_line"`
	ByGender      []AggregateRow `json:"by_gender"`
	ByDate        []AggregateRow `json:"by_date"`
}

// All returns the five tables in a fixed order.
func (t Tables) All() [][]AggregateRow {
	return [][]AggregateRow{t.ByCity, t.ByPayment, t.ByProductLine, t.ByGender, t.ByDate}
}
