package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/pricebook/pricebook/internal/catalog"
	"github.com/pricebook/pricebook/internal/logging"
)

// exportColumns is the header row of both export formats.
var exportColumns = []string{
	"Parent", "Family", "Product Line", "SKU", "Description", "Unit",
	"Standard Price", "Floor Price", "Give Price", "GSA Price", "Weight",
}

// handleExport renders the normalized catalog as a downloadable file.
// Format is selected with ?format=csv|xlsx (default csv).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upload, ok := s.fetchUpload(w, r)
	if !ok {
		return
	}

	parsed, _ := s.parser.Parse(upload.Document)

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "catalog-"+upload.ID.String()+".csv"))
		if err := writeCatalogCSV(w, parsed); err != nil {
			logging.FromContext(ctx).Error("csv export", "upload_id", upload.ID, "error", err)
		}

	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "catalog-"+upload.ID.String()+".xlsx"))
		if err := writeCatalogXLSX(w, parsed); err != nil {
			logging.FromContext(ctx).Error("xlsx export", "upload_id", upload.ID, "error", err)
		}

	default:
		writeError(ctx, w, http.StatusBadRequest, "format must be csv or xlsx")
	}
}

// writeCatalogCSV streams the catalog as CSV, one line per variant with the
// group columns repeated.
func writeCatalogCSV(w http.ResponseWriter, c catalog.Catalog) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportColumns); err != nil {
		return err
	}
	for _, g := range c {
		for _, v := range g.Variants {
			if err := cw.Write(variantRecord(g, v)); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// writeCatalogXLSX renders the catalog as a single-sheet workbook.
func writeCatalogXLSX(w http.ResponseWriter, c catalog.Catalog) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Catalog"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &exportColumns); err != nil {
		return err
	}

	rowNum := 2
	for _, g := range c {
		for _, v := range g.Variants {
			row := []any{
				g.ParentName, g.Family, v.ProductLine, v.SKU, v.Description, v.Unit,
				v.StandardPrice, v.FloorPrice, v.GivePrice, v.GSAPrice, v.Weight,
			}
			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			rowNum++
		}
	}

	return f.Write(w)
}

// variantRecord flattens one variant into a CSV record.
func variantRecord(g catalog.Group, v catalog.Variant) []string {
	return []string{
		g.ParentName,
		g.Family,
		v.ProductLine,
		v.SKU,
		v.Description,
		v.Unit,
		formatFloat(v.StandardPrice),
		formatFloat(v.FloorPrice),
		formatFloat(v.GivePrice),
		formatFloat(v.GSAPrice),
		formatFloat(v.Weight),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
