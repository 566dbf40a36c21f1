package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"housingreview/internal/domain"
)

// Sheet names of the workbook.
const (
	SheetSummary = "심사결과"
	SheetRules   = "규칙"
	SheetFields  = "추출필드"
)

// WriteXLSX writes a workbook with a summary sheet, per-rule results and the
// extracted fields of every review.
func WriteXLSX(out io.Writer, reviews []domain.Review) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	summaries := make([]Summary, len(reviews))
	for i := range reviews {
		summaries[i] = Summarize(&reviews[i])
	}

	var summaryRows, ruleRows, fieldRows [][]string
	for _, s := range summaries {
		summaryRows = append(summaryRows, s.row())
		ruleRows = append(ruleRows, s.ruleRows()...)
		fieldRows = append(fieldRows, s.fieldRows()...)
	}

	// NewFile starts with "Sheet1"; rename it instead of leaving it empty.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return eris.Wrap(err, "xlsx: rename sheet")
	}
	if err := writeSheet(f, SheetSummary, summaryColumns, summaryRows); err != nil {
		return err
	}
	for _, sheet := range []struct {
		name    string
		columns []string
		rows    [][]string
	}{
		{SheetRules, ruleColumns, ruleRows},
		{SheetFields, fieldColumns, fieldRows},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return eris.Wrapf(err, "xlsx: create sheet %s", sheet.name)
		}
		if err := writeSheet(f, sheet.name, sheet.columns, sheet.rows); err != nil {
			return err
		}
	}

	if err := f.Write(out); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows [][]string) error {
	if err := writeRow(f, sheet, 1, columns); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return eris.Wrapf(err, "xlsx: freeze header of %s", sheet)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return eris.Wrap(err, "xlsx: cell name")
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return eris.Wrapf(err, "xlsx: write %s row %d", sheet, rowNum)
	}
	return nil
}
