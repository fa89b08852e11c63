package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Load reads a bibliographic export from disk. The format is chosen by
// extension: .xlsx via the spreadsheet parser, everything else as CSV.
// The first row is the header.
func Load(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses a CSV table from r. Rows may be ragged; they are padded
// or truncated to the header width.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read header")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read row")
		}
		rows = append(rows, record)
	}

	return NewTable(header, rows), nil
}

func loadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("dataset: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("dataset: empty file")
	}

	header := rowToStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}

	return NewTable(header, rows), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// WriteCSV writes the table to w as CSV, header first.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return eris.Wrap(err, "dataset: write row")
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "dataset: flush")
}

// Save writes the table to path as CSV.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "dataset: close %s", path)
}
