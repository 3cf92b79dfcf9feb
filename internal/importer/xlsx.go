// Package importer reads and writes catalog workbooks. A workbook has an
// "entries" sheet and an "offers" sheet, each with a header row.
package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agenthands/boqmatch/internal/core/model"
)

const (
	EntriesSheet = "entries"
	OffersSheet  = "offers"
)

var (
	entryColumns = []string{"id", "canonical_name", "category", "aliases"}
	offerColumns = []string{
		"offer_id", "vendor_id", "vendor_name", "company", "catalog_entry_id", "price", "unit",
		"stock", "lead_time_days", "rating", "available", "approval_status",
	}
)

// XLSXSource serves a workbook on disk as a catalog source. The file is
// re-read on every Load so edits show up on the next refresh.
type XLSXSource struct {
	Path string
}

func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{Path: path}
}

func (s *XLSXSource) Name() string {
	return "xlsx:" + s.Path
}

func (s *XLSXSource) Load(ctx context.Context) ([]model.CatalogEntry, []model.OfferRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads both sheets. Columns are found by header name, in any order
// and case. Numeric cells that are empty or do not parse are left unset;
// the catalog rejects such offers when it builds a snapshot.
func Parse(f *excelize.File) ([]model.CatalogEntry, []model.OfferRecord, error) {
	entryRows, err := f.GetRows(EntriesSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s sheet: %w", EntriesSheet, err)
	}
	offerRows, err := f.GetRows(OffersSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s sheet: %w", OffersSheet, err)
	}

	var entries []model.CatalogEntry
	if len(entryRows) > 0 {
		cols, err := columnIndex(EntriesSheet, entryRows[0], "id", "canonical_name")
		if err != nil {
			return nil, nil, err
		}
		for _, row := range entryRows[1:] {
			if blank(row) {
				continue
			}
			entries = append(entries, model.CatalogEntry{
				ID:            cols.get(row, "id"),
				CanonicalName: cols.get(row, "canonical_name"),
				Category:      cols.get(row, "category"),
				Aliases:       splitAliases(cols.get(row, "aliases")),
			})
		}
	}

	var offers []model.OfferRecord
	if len(offerRows) > 0 {
		cols, err := columnIndex(OffersSheet, offerRows[0], "offer_id", "vendor_id", "catalog_entry_id")
		if err != nil {
			return nil, nil, err
		}
		for _, row := range offerRows[1:] {
			if blank(row) {
				continue
			}
			status := cols.get(row, "approval_status")
			if status == "" {
				status = string(model.ApprovalPending)
			}
			offers = append(offers, model.OfferRecord{
				OfferID:        cols.get(row, "offer_id"),
				VendorID:       cols.get(row, "vendor_id"),
				VendorName:     cols.get(row, "vendor_name"),
				Company:        cols.get(row, "company"),
				CatalogEntryID: cols.get(row, "catalog_entry_id"),
				Price:          parseFloat(cols.get(row, "price")),
				Unit:           cols.get(row, "unit"),
				Stock:          parseInt(cols.get(row, "stock")),
				LeadTimeDays:   parseInt(cols.get(row, "lead_time_days")),
				Rating:         parseFloat(cols.get(row, "rating")),
				Available:      parseBool(cols.get(row, "available")),
				ApprovalStatus: strings.ToLower(status),
			})
		}
	}
	return entries, offers, nil
}

type columns map[string]int

func columnIndex(sheet string, header []string, required ...string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if _, dup := cols[key]; !dup && key != "" {
			cols[key] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s sheet: missing column %q", sheet, name)
		}
	}
	return cols, nil
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func splitAliases(cell string) []string {
	if cell == "" {
		return nil
	}
	var out []string
	for _, a := range strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == '|' }) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	f := parseFloat(s)
	if f == nil || *f != float64(int(*f)) {
		return nil
	}
	v := int(*f)
	return &v
}

func parseBool(s string) *bool {
	var v bool
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		v = true
	case "false", "no", "n", "0":
		v = false
	default:
		return nil
	}
	return &v
}

// Write saves entries and offers as a workbook Parse can read back.
func Write(path string, entries []model.CatalogEntry, offers []model.OfferRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EntriesSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(OffersSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := writeRow(f, EntriesSheet, 1, toRow(entryColumns)); err != nil {
		return err
	}
	for i, e := range entries {
		row := []interface{}{e.ID, e.CanonicalName, e.Category, strings.Join(e.Aliases, "; ")}
		if err := writeRow(f, EntriesSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, OffersSheet, 1, toRow(offerColumns)); err != nil {
		return err
	}
	for i, o := range offers {
		row := []interface{}{
			o.OfferID, o.VendorID, o.VendorName, o.Company, o.CatalogEntryID, cell(o.Price), o.Unit,
			cell(o.Stock), cell(o.LeadTimeDays), cell(o.Rating), cell(o.Available), o.ApprovalStatus,
		}
		if err := writeRow(f, OffersSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, n int, row []interface{}) error {
	ref, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, ref, &row); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, n, err)
	}
	return nil
}

func toRow(names []string) []interface{} {
	row := make([]interface{}, len(names))
	for i, n := range names {
		row[i] = n
	}
	return row
}

func cell[T any](p *T) interface{} {
	if p == nil {
		return ""
	}
	return *p
}
