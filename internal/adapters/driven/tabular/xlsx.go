package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Ensure XLSXParser implements PromptFileParser
var _ driven.PromptFileParser = (*XLSXParser)(nil)

// XLSXParser reads prompts from the first column of the first worksheet
type XLSXParser struct{}

// NewXLSXParser creates a spreadsheet prompt parser
func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Extensions returns the handled extensions
func (p *XLSXParser) Extensions() []string {
	return []string{".xlsx", ".xlsm"}
}

// Parse returns column A of every row after the header in the first sheet.
// Empty rows inside the used range come back as empty cells.
func (p *XLSXParser) Parse(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var cells []string
	header := true
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if header {
			header = false
			continue
		}
		cells = append(cells, firstCell(cols))
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return cells, nil
}
