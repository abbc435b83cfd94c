package dataset

import (
	"iter"
	"slices"

	"supermarket-dashboard/internal/models"
)

// Dataset is the immutable table of sale records. It is safe for concurrent reads.
type Dataset struct {
	records []models.SaleRecord
	cities  []string
}

// New builds a dataset from records. The slice is copied.
func New(records []models.SaleRecord) *Dataset {
	owned := slices.Clone(records)
	return &Dataset{
		records: owned,
		cities:  citiesByFrequency(owned),
	}
}

func (d *Dataset) Len() int {
	return len(d.records)
}

// Rows yields every record in load order.
func (d *Dataset) Rows() iter.Seq[models.SaleRecord] {
	return func(yield func(models.SaleRecord) bool) {
		for _, r := range d.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Cities returns the distinct cities, most frequent first. Ties keep first-seen order.
func (d *Dataset) Cities() []string {
	return slices.Clone(d.cities)
}

func citiesByFrequency(records []models.SaleRecord) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range records {
		if _, seen := counts[r.City]; !seen {
			order = append(order, r.City)
		}
		counts[r.City]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	return order
}
