// Package chart renders the monthly popularity series as a PNG.
package chart

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/thesavant42/arquivo-peaks/internal/models"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	Width  = 1400
	Height = 800

	lineColor = "1f77b4"
	axisColor = "dddddd"
)

// RenderMonthly draws the series as a filled line chart with the peak months
// annotated by their counts, and returns the PNG bytes.
func RenderMonthly(series []models.MonthBucket, peaks []models.PeakEntry) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("cannot chart an empty series")
	}

	xs := make([]time.Time, len(series))
	ys := make([]float64, len(series))
	maxCount := 0
	for i, b := range series {
		xs[i] = b.Month.Start()
		ys[i] = float64(b.Count)
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	blue := drawing.ColorFromHex(lineColor)
	axis := gochart.Style{
		StrokeColor: drawing.ColorFromHex(axisColor),
		FontSize:    14,
	}

	// Pad the x range by a month on each side so single-month series still
	// have a non-zero range and edge peaks keep room for their labels.
	first := series[0].Month.Start().AddDate(0, -1, 0)
	last := series[len(series)-1].Month.Start().AddDate(0, 1, 0)

	yMax := niceCeiling(maxCount)

	graph := gochart.Chart{
		Width:  Width,
		Height: Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 40, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:      "Date",
			NameStyle: gochart.Style{FontSize: 18},
			Style:     axis,
			Range: &gochart.ContinuousRange{
				Min: gochart.TimeToFloat64(first),
				Max: gochart.TimeToFloat64(last),
			},
			Ticks: monthTicks(series),
		},
		YAxis: gochart.YAxis{
			Name:      "Number of Occurrences",
			NameStyle: gochart.Style{FontSize: 18},
			Style:     axis,
			Range: &gochart.ContinuousRange{
				Min: 0,
				Max: float64(yMax),
			},
			Ticks: integerTicks(yMax),
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "mentions",
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: blue,
					StrokeWidth: 3,
					FillColor:   blue.WithAlpha(51),
					DotColor:    blue,
					DotWidth:    5,
				},
			},
		},
	}

	// go-chart rejects an annotation series without annotations.
	if len(peaks) > 0 {
		graph.Series = append(graph.Series, gochart.AnnotationSeries{
			Annotations: peakAnnotations(peaks),
			Style: gochart.Style{
				StrokeColor: blue,
				FillColor:   drawing.ColorWhite,
				FontColor:   drawing.ColorBlack,
				FontSize:    12,
			},
		})
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderMonthlyBase64 is RenderMonthly encoded for embedding in a data URI
func RenderMonthlyBase64(series []models.MonthBucket, peaks []models.PeakEntry) (string, error) {
	png, err := RenderMonthly(series, peaks)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

func peakAnnotations(peaks []models.PeakEntry) []gochart.Value2 {
	annotations := make([]gochart.Value2, 0, len(peaks))
	for _, p := range peaks {
		annotations = append(annotations, gochart.Value2{
			XValue: gochart.TimeToFloat64(p.Month.Start()),
			YValue: float64(p.Count),
			Label:  fmt.Sprintf("%d", p.Count),
		})
	}
	return annotations
}

// monthTicks labels the x axis with at most ~12 evenly spaced months
func monthTicks(series []models.MonthBucket) []gochart.Tick {
	step := int(math.Ceil(float64(len(series)) / 12))
	if step < 1 {
		step = 1
	}
	ticks := make([]gochart.Tick, 0, len(series)/step+1)
	for i := 0; i < len(series); i += step {
		m := series[i].Month.Start()
		ticks = append(ticks, gochart.Tick{
			Value: gochart.TimeToFloat64(m),
			Label: m.Format("Jan 2006"),
		})
	}
	return ticks
}

// integerTicks returns whole-number y ticks from 0 to max
func integerTicks(max int) []gochart.Tick {
	step := max / 8
	if step < 1 {
		step = 1
	}
	var ticks []gochart.Tick
	for v := 0; v <= max; v += step {
		ticks = append(ticks, gochart.Tick{Value: float64(v), Label: fmt.Sprintf("%d", v)})
	}
	return ticks
}

// niceCeiling leaves ~15% headroom above the highest count for annotations
func niceCeiling(maxCount int) int {
	ceiling := int(math.Ceil(float64(maxCount) * 1.15))
	if ceiling <= maxCount {
		ceiling = maxCount + 1
	}
	return ceiling
}
