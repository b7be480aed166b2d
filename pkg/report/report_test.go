package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"

	"f1telemetryhub/pkg/charts"
)

type fakeRenderer struct {
	calls int
	fail  bool
}

func (f *fakeRenderer) Render(w io.Writer, c charts.Chart, format charts.Format) error {
	f.calls++
	if f.fail {
		return errors.New("renderer broke")
	}
	img := image.NewRGBA(image.Rect(0, 0, 60, 25))
	img.Set(1, 1, color.RGBA{0xe1, 0x06, 0x00, 0xff})
	return png.Encode(w, img)
}

func fiveCharts() []charts.Chart {
	out := []charts.Chart{}
	for _, name := range []string{"speed", "throttle", "brake", "gear", "delta"} {
		out = append(out, charts.Chart{Name: name, Title: name + " VER vs LEC"})
	}
	return out
}

func TestWrite_OnePagePerChart(t *testing.T) {
	r := &fakeRenderer{}
	var b bytes.Buffer
	if err := Write(&b, fiveCharts(), r, Meta{Title: "VER vs LEC", Session: "2024 Bahrain Grand Prix Q"}); err != nil {
		t.Fatal(err)
	}
	if r.calls != 5 {
		t.Errorf("expected 5 renders, got %d", r.calls)
	}

	reader, err := pdf.NewReader(bytes.NewReader(b.Bytes()), int64(b.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if n := reader.NumPage(); n != 5 {
		t.Errorf("expected 5 pages, got %d", n)
	}
}

func TestWrite_Errors(t *testing.T) {
	var b bytes.Buffer
	if err := Write(&b, nil, &fakeRenderer{}, Meta{}); err == nil {
		t.Error("expected an error without charts")
	}
	if err := Write(&b, fiveCharts(), &fakeRenderer{fail: true}, Meta{}); err == nil {
		t.Error("expected the renderer error")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("VER", "LEC"); got != "F1_Telemetry_VER_vs_LEC.pdf" {
		t.Errorf("got %q", got)
	}
}

func TestFit(t *testing.T) {
	w, h := fit(1200, 500, 277, 170)
	if math.Abs(w-277) > 1e-9 || h > 170 {
		t.Errorf("wide image fit to %vx%v", w, h)
	}
	w, h = fit(500, 1000, 277, 170)
	if math.Abs(h-170) > 1e-9 || w > 277 {
		t.Errorf("tall image fit to %vx%v", w, h)
	}
}
