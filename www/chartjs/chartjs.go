package chartjs

import (
	"math"
	"time"

	"github.com/icodeforyou/spothub-go/calc"
	"github.com/icodeforyou/spothub-go/localtime"
)

const ColorYellow = "#ffc107d4"
const ColorRed = "#f44336d4"
const ColorGreen = "#4caf50d4"
const ColorBlue = "#2196f3d4"

var bandColors = map[calc.PriceBand]string{
	calc.PriceBandFree:     ColorBlue,
	calc.PriceBandLow:      ColorGreen,
	calc.PriceBandMedium:   ColorYellow,
	calc.PriceBandHigh:     ColorRed,
	calc.PriceBandVeryHigh: ColorRed,
}

// NewChart creates a chart with a single price dataset, one point per label.
func NewChart(chartType, title string, labels []string) Chart {
	chart := Chart{
		Type: chartType,
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{
				{
					Data:        make([]*float64, len(labels)),
					BorderWidth: 1,
					Tension:     0.4,
					Fill:        chartType == "line",
					BorderColor: ColorYellow,
					YAxisID:     "YAxis1",
				},
			},
		},
		Options: ChartOptions{
			Responsive: true,
			Plugins: ChartPlugins{
				Legend: ChartLegend{Display: false},
				Title:  ChartTitle{Display: false},
			},
			Scales: map[string]ChartScale{
				"YAxis1": {
					Type:     "linear",
					Display:  true,
					Position: "left",
					Title:    ChartScaleTitle{Display: true, Text: "", Color: ColorYellow}},
			},
		},
	}

	if title != "" {
		chart.Options.Plugins.Title = ChartTitle{Display: true, Text: title}
	}

	return chart
}

// ClockLabels renders times as HH:MM in the viewer's time zone.
func ClockLabels(times []time.Time) []string {
	labels := make([]string, len(times))
	for i, t := range times {
		labels[i] = localtime.FormatClock(t)
	}
	return labels
}

func BandColor(band calc.PriceBand) string {
	if c, ok := bandColors[band]; ok {
		return c
	}
	return ColorYellow
}

func (cs ChartScale) WithTitle(title string) ChartScale {
	cs.Title.Text = title
	return cs
}

func (cs ChartScale) WithMinAndMax(min, max float64) ChartScale {
	cs.Min = &min
	cs.Max = &max
	return cs
}

func FixedFloat64(num float64, precision int) *float64 {
	p := math.Pow(10, float64(precision))
	rounded := math.Round(num * p)
	result := rounded / p
	return &result
}
