package charts

import "supermarket-dashboard/internal/models"

type Kind string

const KindBar Kind = "bar"

type Orientation string

const (
	Vertical   Orientation = "v"
	Horizontal Orientation = "h"
)

type BarMode string

const (
	BarModeRelative BarMode = "relative"
	BarModeGroup    BarMode = "group"
)

// Role decides the chart's slot size on the page.
type Role string

const (
	RoleCompact Role = "compact"
	RoleWide    Role = "wide"
)

const (
	CompactHeight = 200
	WideHeight    = 500
	Theme         = "darkly"
)

type Axis struct {
	Field string `json:"field"`
	Title string `json:"title"`
}

type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"points"`
}

type Margin struct {
	Left   int `json:"l"`
	Right  int `json:"r"`
	Top    int `json:"t"`
	Bottom int `json:"b"`
}

type Layout struct {
	Role   Role   `json:"role"`
	Height int    `json:"height"`
	Margin Margin `json:"margin"`
	Theme  string `json:"template"`
}

// ChartSpec is a declarative description of one bar chart.
// X and Y name the fields bound to each axis; for horizontal charts X carries the metric.
type ChartSpec struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Kind        Kind        `json:"kind"`
	Orientation Orientation `json:"orientation"`
	BarMode     BarMode     `json:"barmode"`
	X           Axis        `json:"x"`
	Y           Axis        `json:"y"`
	ColorField  string      `json:"color,omitempty"`
	Series      []Series    `json:"series"`
	Layout      Layout      `json:"layout"`
}

// Empty reports whether the chart has no bars to draw.
func (c ChartSpec) Empty() bool {
	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// Slot identifiers, also used as DOM ids and URL segments.
const (
	SlotCity        = "city"
	SlotPayment     = "payment"
	SlotProductLine = "product-line"
	SlotGender      = "gender"
	SlotDate        = "date"
)

// ChartSet is the output of one recomputation. All five charts are replaced together.
type ChartSet struct {
	Seq         uint64                 `json:"seq"`
	Selection   models.FilterSelection `json:"selection"`
	City        ChartSpec              `json:"city"`
	Payment     ChartSpec              `json:"payment"`
	ProductLine ChartSpec              `json:"product_line"`
	Gender      ChartSpec              `json:"gender"`
	Date        ChartSpec              `json:"date"`
}

func (s ChartSet) Specs() []ChartSpec {
	return []ChartSpec{s.City, s.Payment, s.ProductLine, s.Gender, s.Date}
}

// Slot returns the chart with the given slot id.
func (s ChartSet) Slot(id string) (ChartSpec, bool) {
	for _, spec := range s.Specs() {
		if spec.ID == id {
			return spec, true
		}
	}
	return ChartSpec{}, false
}
