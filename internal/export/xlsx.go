// Package export writes stored leads to spreadsheet files.
package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SheetName is the name of the single sheet in an export.
const SheetName = "Leads"

// Header is the first row of every export.
var Header = []string{
	"ID", "Azienda", "Sito web", "Luogo", "Telefono", "Email", "Fonte email",
	"Settore", "Prodotto", "Score", "Motivazione", "Stato", "Note", "Creato il",
}

// XLSXOptions configures a lead export.
type XLSXOptions struct {
	// ProductNames maps product ids to names; unknown ids are written as-is.
	ProductNames map[string]string
	// MinScore drops leads scoring below it.
	MinScore int
}

// BuildXLSX returns a workbook with one row per lead after the header.
func BuildXLSX(leads []model.Lead, opts XLSXOptions) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, l := range leads {
		if l.MatchScore < opts.MinScore {
			continue
		}
		product := l.InterestedProductID
		if name, ok := opts.ProductNames[product]; ok {
			product = name
		}

		row := sheet.AddRow()
		for _, v := range []string{
			l.ID, l.CompanyName, l.Website, l.Location, l.Phone, l.Email, l.BestEmailSource,
			l.IndustryVertical, product,
		} {
			row.AddCell().SetString(v)
		}
		row.AddCell().SetInt(l.MatchScore)
		for _, v := range []string{l.MatchReason, l.Status, l.Notes} {
			row.AddCell().SetString(v)
		}
		created := ""
		if !l.CreatedAt.IsZero() {
			created = l.CreatedAt.Format("2006-01-02 15:04")
		}
		row.AddCell().SetString(created)
	}
	return f, nil
}

// WriteXLSX writes the leads workbook to w.
func WriteXLSX(w io.Writer, leads []model.Lead, opts XLSXOptions) error {
	f, err := BuildXLSX(leads, opts)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// SaveXLSX writes the leads workbook to path.
func SaveXLSX(path string, leads []model.Lead, opts XLSXOptions) error {
	f, err := BuildXLSX(leads, opts)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
