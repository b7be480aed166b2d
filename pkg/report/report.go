package report

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetryhub/pkg/charts"
)

const (
	pageMargin  = 10.0
	titleHeight = 10.0
)

type Meta struct {
	Title   string
	Session string
	Created time.Time
}

func FileName(driverA, driverB string) string {
	return fmt.Sprintf("F1_Telemetry_%s_vs_%s.pdf", driverA, driverB)
}

// Write renders every chart as PNG and writes a landscape A4 PDF with one
// chart per page, in order.
func Write(w io.Writer, cs []charts.Chart, r charts.ChartRenderer, meta Meta) error {
	if len(cs) == 0 {
		return errors.New("report has no charts")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(meta.Title, true)
	pdf.SetSubject(meta.Session, true)
	pdf.SetCreator("f1telemetryhub", true)
	if !meta.Created.IsZero() {
		pdf.SetCreationDate(meta.Created)
	}
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin - 2)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("%s  %d/%d", meta.Session, pdf.PageNo(), len(cs)), "", 0, "R", false, 0, "")
	})

	pageW, pageH := pdf.GetPageSize()
	areaW := pageW - 2*pageMargin
	areaH := pageH - 2*pageMargin - titleHeight - 6

	for i, c := range cs {
		var img bytes.Buffer
		if err := r.Render(&img, c, charts.PNG); err != nil {
			return errors.Wrapf(err, "rendering page %d", i+1)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(img.Bytes()))
		if err != nil {
			return errors.Wrapf(err, "reading %s image", c.Name)
		}

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(areaW, titleHeight, c.Title, "", 1, "L", false, 0, "")

		name := fmt.Sprintf("chart-%d-%s", i, c.Name)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, &img)

		imgW, imgH := fit(float64(cfg.Width), float64(cfg.Height), areaW, areaH)
		x := pageMargin + (areaW-imgW)/2
		pdf.ImageOptions(name, x, pageMargin+titleHeight+2, imgW, imgH, false, opts, 0, "")

		if pdf.Err() {
			return errors.Wrapf(pdf.Error(), "adding page %d", i+1)
		}
	}

	logrus.WithFields(logrus.Fields{
		"pages":   pdf.PageNo(),
		"session": meta.Session,
	}).Debug("report written")

	return errors.Wrap(pdf.Output(w), "writing pdf")
}

// fit scales w x h to the largest size inside maxW x maxH.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	scale := maxW / w
	if h*scale > maxH {
		scale = maxH / h
	}
	return w * scale, h * scale
}
