package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/importer-intel/internal/model"
)

func writeProfileXLSX(w io.Writer, p model.ParsedImporterData) error {
	f := xlsx.NewFile()
	for _, s := range profileSections(p) {
		sheet, err := f.AddSheet(s.title)
		if err != nil {
			return eris.Wrapf(err, "xlsx: add sheet %s", s.title)
		}
		addRow(sheet, s.header)
		if s.title == "Volumes" {
			// Numeric cells so the sheet charts directly.
			for _, v := range model.SortVolumes(p.ShipmentVolumeHistory) {
				row := sheet.AddRow()
				row.AddCell().SetInt(v.Year)
				row.AddCell().SetFloat(v.Volume)
			}
			continue
		}
		for _, r := range s.rows {
			addRow(sheet, r)
		}
	}
	return eris.Wrap(f.Write(w), "xlsx: write")
}

func writeSummariesXLSX(w io.Writer, summaries []model.ImporterSummary) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Importers")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}
	addRow(sheet, summaryHeader)
	for _, s := range summaries {
		addRow(sheet, summaryRow(s))
	}
	return eris.Wrap(f.Write(w), "xlsx: write")
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
