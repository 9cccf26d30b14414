// Package parser reads workbook and delimited-text financial exports into
// raw sheets. It makes no assumptions about column meaning; semantic
// classification happens downstream in the schema package.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cashlens-dev/cashlens/internal/audit"
	enc "github.com/cashlens-dev/cashlens/internal/encoding"
	"github.com/cashlens-dev/cashlens/internal/sheet"
)

// Format is the declared file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatForFilename picks the format from the file extension. Anything
// that is not delimited text is treated as a workbook.
func FormatForFilename(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	default:
		return FormatXLSX
	}
}

// Metadata describes a parsed file.
type Metadata struct {
	Filename      string   `json:"filename"`
	Format        Format   `json:"format"`
	FileSizeBytes int64    `json:"file_size_bytes"`
	RowCount      int      `json:"row_count"`
	ColumnCount   int      `json:"column_count"`
	SheetNames    []string `json:"sheet_names,omitempty"`
}

// File is the parser output: file-level metadata plus one RawSheet per
// sheet that contains data.
type File struct {
	Metadata Metadata
	Sheets   []sheet.RawSheet
}

// Parser turns a file into raw sheets and records the ingestion in the
// audit trail. Parse errors are fatal for the run.
type Parser struct {
	log *audit.Logger
}

func New(log *audit.Logger) *Parser {
	return &Parser{log: log}
}

// ParseFile parses the file at path, picking the format from its extension.
func (p *Parser) ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		p.log.AddError("File parsing failed", map[string]any{"path": path}, err)
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		p.log.AddError("File parsing failed", map[string]any{"path": path}, err)
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return p.Parse(f, filepath.Base(path), info.Size(), FormatForFilename(path))
}

// Parse parses the content of r with the declared format.
func (p *Parser) Parse(r io.Reader, filename string, size int64, format Format) (*File, error) {
	var (
		sheets []sheet.RawSheet
		names  []string
		err    error
	)

	switch format {
	case FormatXLSX:
		sheets, names, err = parseWorkbook(r)
	default:
		format = FormatCSV

		var s sheet.RawSheet

		s, err = parseDelimited(r)
		if err == nil {
			sheets = []sheet.RawSheet{s}
			names = []string{s.Name}
		}
	}

	if err != nil {
		p.log.AddError("File parsing failed", map[string]any{"path": filename}, err)
		return nil, err
	}

	meta := Metadata{
		Filename:      filename,
		Format:        format,
		FileSizeBytes: size,
		SheetNames:    names,
	}
	for _, s := range sheets {
		meta.RowCount += len(s.Rows)
	}

	if len(sheets) > 0 {
		meta.ColumnCount = len(sheets[0].Headers)
	}

	p.log.Add(audit.EventFileIngested,
		fmt.Sprintf("Ingested file: %s (%s)", filename, strings.ToUpper(string(format))),
		map[string]any{
			"filename":    filename,
			"format":      string(format),
			"row_count":   meta.RowCount,
			"sheet_count": len(sheets),
		})

	return &File{Metadata: meta, Sheets: sheets}, nil
}

// parseDelimited reads a delimited-text export. The first line is always
// the header row; the delimiter is detected by testing for a semicolon
// before falling back to comma.
func parseDelimited(r io.Reader) (sheet.RawSheet, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return sheet.RawSheet{}, fmt.Errorf("detect encoding: %w", err)
	}

	content, err := io.ReadAll(utf8r)
	if err != nil {
		return sheet.RawSheet{}, fmt.Errorf("read file: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.Comma = detectDelimiter(string(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	grid, err := reader.ReadAll()
	if err != nil {
		return sheet.RawSheet{}, fmt.Errorf("read csv: %w", err)
	}

	if len(grid) == 0 {
		return sheet.RawSheet{}, fmt.Errorf("csv has no header line")
	}

	return buildSheet("default", grid), nil
}

// detectDelimiter tests the header line for a semicolon before falling
// back to comma.
func detectDelimiter(content string) rune {
	header, _, _ := strings.Cut(content, "\n")
	if strings.ContainsRune(header, ';') {
		return ';'
	}

	return ','
}

// parseWorkbook reads every named sheet of a workbook independently.
// Sheets with no rows still appear in the name list but produce no
// RawSheet. A workbook where no sheet has data is a parse error.
func parseWorkbook(r io.Reader) ([]sheet.RawSheet, []string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var sheets []sheet.RawSheet

	names := wb.GetSheetList()
	for _, name := range names {
		grid, err := wb.GetRows(name)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		if len(grid) == 0 {
			continue
		}

		sheets = append(sheets, buildSheet(name, grid))
	}

	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets containing data")
	}

	return sheets, names, nil
}

// buildSheet converts a 2-D grid into a RawSheet. Row keys are the
// normalized headers; genuinely empty cells are absent from the row.
func buildSheet(name string, grid [][]string) sheet.RawSheet {
	headers := make([]string, len(grid[0]))
	keys := make([]string, len(grid[0]))

	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
		keys[i] = sheet.NormalizeHeader(h)
	}

	var rows []sheet.Row

	for _, line := range grid[1:] {
		if isBlank(line) {
			continue
		}

		row := make(sheet.Row, len(keys))

		for i, key := range keys {
			if i >= len(line) || key == "" {
				continue
			}

			if v, ok := sheet.Coerce(line[i]); ok {
				row[key] = v
			}
		}

		rows = append(rows, row)
	}

	return sheet.RawSheet{Name: name, Headers: headers, Rows: rows, Grid: grid}
}

func isBlank(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
