package services

import (
	"cmp"
	"slices"
	"strings"

	"supermarket-dashboard/internal/dataset"
	"supermarket-dashboard/internal/models"
)

type groupKey struct {
	first  string
	second string
}

// grouping accumulates metric values per key and remembers every key it saw.
type grouping struct {
	keyOf  func(models.SaleRecord) groupKey
	arity  int
	values map[groupKey][]float64
}

func newGrouping(arity int, keyOf func(models.SaleRecord) groupKey) *grouping {
	return &grouping{
		keyOf:  keyOf,
		arity:  arity,
		values: make(map[groupKey][]float64),
	}
}

func (g *grouping) add(r models.SaleRecord, v float64) {
	k := g.keyOf(r)
	g.values[k] = append(g.values[k], v)
}

func (g *grouping) rows(metric models.Metric, compare func(a, b groupKey) int) []models.AggregateRow {
	keys := make([]groupKey, 0, len(g.values))
	for k := range g.values {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compare)

	rows := make([]models.AggregateRow, 0, len(keys))
	for _, k := range keys {
		vals := g.values[k]
		keyTuple := []string{k.first}
		if g.arity == 2 {
			keyTuple = append(keyTuple, k.second)
		}
		rows = append(rows, models.AggregateRow{
			Keys:  keyTuple,
			Value: metric.Reduce(vals),
			Count: len(vals),
		})
	}
	return rows
}

func byLabel(a, b groupKey) int {
	if c := strings.Compare(a.first, b.first); c != 0 {
		return c
	}
	return strings.Compare(a.second, b.second)
}

// byDateKey orders keys formatted with models.DateLayout, which sort lexically in date order.
func byDateKey(a, b groupKey) int {
	return cmp.Compare(a.first, b.first)
}

// Aggregate filters ds to the selected cities and reduces the rows five ways.
// Category keys are sorted ascending; dates ascend chronologically.
func Aggregate(ds *dataset.Dataset, sel models.FilterSelection) models.Tables {
	cities := sel.CitySet()

	byCity := newGrouping(1, func(r models.SaleRecord) groupKey { return groupKey{first: r.City} })
	byPayment := newGrouping(1, func(r models.SaleRecord) groupKey { return groupKey{first: r.Payment} })
	byProduct := newGrouping(2, func(r models.SaleRecord) groupKey { return groupKey{first: r.ProductLine, second: r.City} })
	byGender := newGrouping(2, func(r models.SaleRecord) groupKey { return groupKey{first: r.Gender, second: r.City} })
	byDate := newGrouping(1, func(r models.SaleRecord) groupKey { return groupKey{first: r.Date.Format(models.DateLayout)} })
	all := []*grouping{byCity, byPayment, byProduct, byGender, byDate}

	if len(cities) > 0 {
		for r := range ds.Rows() {
			if _, ok := cities[r.City]; !ok {
				continue
			}
			v := sel.Metric.Value(r)
			for _, g := range all {
				g.add(r, v)
			}
		}
	}

	return models.Tables{
		ByCity:        byCity.rows(sel.Metric, byLabel),
		ByPayment:     byPayment.rows(sel.Metric, byLabel),
		ByProductLine: byProduct.rows(sel.Metric, byLabel),
		ByGender:      byGender.rows(sel.Metric, byLabel),
		ByDate:        byDate.rows(sel.Metric, byDateKey),
	}
}
