package report

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

var (
	chartBlue  = color.RGBA{R: 0x66, G: 0x7e, B: 0xea, A: 0xff}
	chartGreen = color.RGBA{R: 0x48, G: 0xbb, B: 0x78, A: 0xff}
	chartRed   = color.RGBA{R: 0xfc, G: 0x81, B: 0x81, A: 0xff}
	chartGray  = color.RGBA{R: 0x71, G: 0x80, B: 0x96, A: 0xff}
)

// WriteScaleChart renders the hand-scale histogram with the two group cut
// lines marked.
func WriteScaleChart(path string, b *gesture.Batch) error {
	scales := make(plotter.Values, len(b.Samples))
	for i := range b.Samples {
		scales[i] = b.Samples[i].Scale
	}

	p := plot.New()
	p.Title.Text = "Hand Scale Distribution"
	p.X.Label.Text = "Scale (average finger length)"
	p.Y.Label.Text = "Frequency"

	hist, err := plotter.NewHist(scales, 20)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	hist.FillColor = chartBlue
	p.Add(hist)

	_, _, _, ymax := hist.DataRange()
	for _, cut := range []struct {
		name  string
		value float64
	}{
		{"q33 (far|mid)", b.Q33},
		{"q66 (mid|near)", b.Q66},
	} {
		line, err := plotter.NewLine(plotter.XYs{{X: cut.value, Y: 0}, {X: cut.value, Y: ymax}})
		if err != nil {
			return fmt.Errorf("failed to build cut line: %w", err)
		}
		line.LineStyle.Color = chartGray
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
		p.Legend.Add(cut.name, line)
	}
	p.Legend.Top = true

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save scale chart: %w", err)
	}
	return nil
}

// WriteAccuracyChart renders the two-panel accuracy figure: per-group
// accuracy bars on the left, scale versus dominant-gesture score on the
// right with correct and wrong samples in different colors. The batch must
// have a known ground truth.
func WriteAccuracyChart(path string, b *gesture.Batch) error {
	if !b.Truth.Known() {
		return fmt.Errorf("accuracy chart requires a known ground truth")
	}

	bars, err := accuracyBars(b)
	if err != nil {
		return err
	}
	scatter, err := scoreScatter(b)
	if err != nil {
		return err
	}

	img := vgimg.New(14*vg.Inch, 6*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Points(20)}
	canvases := plot.Align([][]*plot.Plot{{bars, scatter}}, tiles, dc)
	bars.Draw(canvases[0][0])
	scatter.Draw(canvases[0][1])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create accuracy chart: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to save accuracy chart: %w", err)
	}
	return nil
}

func accuracyBars(b *gesture.Batch) (*plot.Plot, error) {
	var values plotter.Values
	var names []string
	for _, group := range gesture.DistanceGroups {
		acc, _, ok := b.GroupAccuracy(group)
		if !ok {
			continue
		}
		values = append(values, acc)
		names = append(names, string(group))
	}

	p := plot.New()
	p.Title.Text = "Accuracy by Distance Group"
	p.Y.Label.Text = "Accuracy"
	p.Y.Min, p.Y.Max = 0, 1

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("failed to build accuracy bars: %w", err)
	}
	bars.Color = chartBlue
	p.Add(bars)
	p.NominalX(names...)
	return p, nil
}

func scoreScatter(b *gesture.Batch) (*plot.Plot, error) {
	gt := b.Truth.Gesture
	var correct, wrong plotter.XYs
	for i := range b.Samples {
		d := &b.Samples[i]
		pt := plotter.XY{X: d.Scale, Y: float64(d.Score(gt))}
		if d.Correctness.ByScore {
			correct = append(correct, pt)
		} else {
			wrong = append(wrong, pt)
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Gesture: Scale vs Score", gt)
	p.X.Label.Text = "Scale"
	p.Y.Label.Text = fmt.Sprintf("Score %s", gt)

	for _, set := range []struct {
		name   string
		points plotter.XYs
		color  color.Color
	}{
		{"Correct", correct, chartGreen},
		{"Wrong", wrong, chartRed},
	} {
		if len(set.points) == 0 {
			continue
		}
		s, err := plotter.NewScatter(set.points)
		if err != nil {
			return nil, fmt.Errorf("failed to build scatter: %w", err)
		}
		s.GlyphStyle.Color = set.color
		s.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(s)
		p.Legend.Add(set.name, s)
	}
	p.Legend.Top = true
	return p, nil
}
