package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"

	"github.com/jmtruffa/xirr"
)

// ErrEmpty is returned when a file holds no cash-flow rows.
var ErrEmpty = errors.New("no cash flows found")

// dateLayouts are tried in order for text dates. Slash dates are read day
// first (DD/MM/YYYY); month-first files must be converted to ISO dates.
var dateLayouts = []string{
	xirr.DateFormat,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2-Jan-2006",
	"Jan 2, 2006",
}

// excelEpoch is day 0 of the 1900 date system, accounting for Excel's
// phantom 1900-02-29.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

// ReadFile reads cash flows from a .csv or .xls file.
func ReadFile(path string) ([]xirr.CashFlow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		return ReadXLS(path)
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// ReadCSV reads "date,amount" rows. A first row where neither column parses
// is taken as a header. Blank lines and '#' comments are skipped; any other
// row with a bad cell or extra columns is an error.
func ReadCSV(r io.Reader) ([]xirr.CashFlow, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows, ParseDate)
}

// ReadXLS reads columns A (date) and B (amount) of the first sheet. Date cells
// may hold text dates or Excel serial day numbers.
func ReadXLS(path string) ([]xirr.CashFlow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("open xls: %s has no workbook stream", path)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmpty
	}

	// WorkSheet.Row panics on rows without cells; ReadAllCells leaves them nil.
	// Limiting to the first sheet's rows keeps later sheets out.
	rows := wb.ReadAllCells(int(sheet.MaxRow) + 1)
	return parseRows(rows, parseCellDate)
}

func parseRows(rows [][]string, parseDate func(string) (xirr.Fecha, error)) ([]xirr.CashFlow, error) {
	header := firstNonBlank(rows)

	var flows []xirr.CashFlow
	for i, row := range rows {
		if blank(row) {
			continue
		}
		row = trimTrailingBlank(row)
		if len(row) != 2 {
			return nil, fmt.Errorf("row %d: expected date and amount, got %d columns", i+1, len(row))
		}

		date, dateErr := parseDate(row[0])
		amount, amountErr := ParseAmount(row[1])
		if dateErr != nil && amountErr != nil && i == header {
			continue
		}
		if dateErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, dateErr)
		}
		if amountErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, amountErr)
		}
		flows = append(flows, xirr.CashFlow{Date: date, Amount: amount})
	}
	if len(flows) == 0 {
		return nil, ErrEmpty
	}
	return flows, nil
}

// ParseDate accepts the text layouts in dateLayouts.
func ParseDate(s string) (xirr.Fecha, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return xirr.NewFecha(t), nil
		}
	}
	return xirr.Fecha{}, fmt.Errorf("invalid date %q", s)
}

// parseCellDate is ParseDate plus Excel serial day numbers, which is how
// spreadsheet date cells without a text format come out.
func parseCellDate(s string) (xirr.Fecha, error) {
	if d, err := ParseDate(s); err == nil {
		return d, nil
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial < 1 || serial > maxExcelSerial {
		return xirr.Fecha{}, fmt.Errorf("invalid date %q", s)
	}
	return xirr.NewFecha(excelEpoch.AddDate(0, 0, int(math.Floor(serial)))), nil
}

// ParseAmount reads a number, allowing thousands separators, a currency
// prefix and accounting-style parentheses for negatives.
func ParseAmount(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = clean[1 : len(clean)-1]
	}
	clean = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '$', '₹', '€', '£':
			return -1
		}
		return r
	}, clean)

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if negative {
		v = -v
	}
	return v, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlank(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}
	return row[:n]
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !blank(row) {
			return i
		}
	}
	return -1
}
