package sectors

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sectors"

// RenderTable writes the comparison as a text table.
func RenderTable(w io.Writer, c Comparison) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Sector", c.HeaderA(), c.HeaderB(), "Delta", "Faster"})
	for _, r := range c.Display() {
		t.AppendRow(table.Row{r.Label, r.A, r.B, r.Delta, fasterText(r)})
	}
	t.AppendSeparator()
	lap := c.LapTimes()
	t.AppendFooter(table.Row{lap.Label, lap.A, lap.B, lap.Delta, fasterText(lap)})
	t.Render()
}

func fasterText(r DisplayRow) string {
	if r.Driver != "" {
		return r.Driver
	}
	if r.Faster == FasterEven {
		return "="
	}
	return "-"
}

// WriteXLSX writes the comparison as a single sheet workbook. Times are
// numeric seconds; missing values are left as "-".
func WriteXLSX(w io.Writer, c Comparison) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"1c399e"},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
		Font: &excelize.Font{
			Color: "ffffff",
			Bold:  true,
		},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	fasterStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"3cb03a"},
		},
		NumFmt: 2,
	})
	if err != nil {
		return errors.Wrap(err, "creating delta style")
	}
	slowerStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"f71e1e"},
		},
		NumFmt: 2,
	})
	if err != nil {
		return errors.Wrap(err, "creating delta style")
	}

	header := []any{"Sector", c.HeaderA(), c.HeaderB(), "Delta"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if err := f.SetCellStyle(sheetName, "A1", "D1", headerStyle); err != nil {
		return errors.Wrap(err, "styling header")
	}

	rows := append(c.Rows[:], c.LapTime)
	for i, r := range rows {
		label := any(r.Sector)
		if r.Sector == 0 {
			label = "Lap"
		}
		values := []any{label, seconds(r.A.Valid, r.A.Seconds()), seconds(r.B.Valid, r.B.Seconds()), seconds(r.Delta.Valid, r.Delta.Seconds())}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}

		// green when B gained time
		deltaCell, _ := excelize.CoordinatesToCellName(4, i+2)
		switch r.Faster() {
		case FasterB:
			err = f.SetCellStyle(sheetName, deltaCell, deltaCell, fasterStyle)
		case FasterA:
			err = f.SetCellStyle(sheetName, deltaCell, deltaCell, slowerStyle)
		}
		if err != nil {
			return errors.Wrap(err, "styling delta")
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func seconds(valid bool, v float64) any {
	if !valid {
		return "-"
	}
	return v
}
