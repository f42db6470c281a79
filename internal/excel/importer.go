package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/vocabsrs/internal/database"
	"github.com/example/vocabsrs/pkg/models"
)

// Supported file formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath         string // Path to the Excel or CSV file
	TermColumn       string // Column with the term
	DefinitionColumn string // Column with the definition
	ContextColumn    string // Column with the example sentence, optional
	SheetName        string // Sheet to import; empty means the first sheet
	StartRow         int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TermColumn:       "A",
		DefinitionColumn: "B",
		ContextColumn:    "C",
		StartRow:         2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int // Duplicates and rows without a term
	Errors         []string
}

// CardAdder creates a fresh card in a deck
type CardAdder interface {
	AddCard(ctx context.Context, deckID, term, definition, example string) (*models.Card, error)
}

// FormatFromName picks the format from a file name's extension
func FormatFromName(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported file type %q, expected .xlsx or .csv", filepath.Ext(name))
	}
}

// ImportCards imports cards from the Excel or CSV file in config.FilePath
func ImportCards(ctx context.Context, config ImportConfig, deckID string, adder CardAdder) (*ImportResult, error) {
	format, err := FormatFromName(config.FilePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ImportReader(ctx, config, format, file, deckID, adder)
}

// ImportReader imports cards from r in the given format
func ImportReader(ctx context.Context, config ImportConfig, format string, r io.Reader, deckID string, adder CardAdder) (*ImportResult, error) {
	var rows [][]string
	var err error
	switch format {
	case FormatXLSX:
		rows, err = readExcel(r, config.SheetName)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.TotalProcessed++
		if err := processRow(ctx, row, config, deckID, adder, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// readExcel returns the rows of a sheet, defaulting to the first one
func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// processRow creates one card from a row
func processRow(ctx context.Context, row []string, config ImportConfig, deckID string, adder CardAdder, result *ImportResult) error {
	term := cleanTerm(cell(row, config.TermColumn))
	if term == "" {
		result.Skipped++
		return nil
	}

	_, err := adder.AddCard(ctx, deckID, term, cell(row, config.DefinitionColumn), cell(row, config.ContextColumn))
	if errors.Is(err, database.ErrDuplicateCard) {
		result.Skipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create card %q: %w", term, err)
	}
	result.Created++
	return nil
}

// cell returns the trimmed value of a column, or "" when the row is shorter
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// cleanTerm removes grammatical notes in parentheses, e.g. "go (went, gone)"
func cleanTerm(term string) string {
	if idx := strings.Index(term, "("); idx > 0 {
		return strings.TrimSpace(term[:idx])
	}
	return strings.TrimSpace(term)
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
