package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Ensure CSVParser implements PromptFileParser
var _ driven.PromptFileParser = (*CSVParser)(nil)

const utf8BOM = "\uFEFF"

// CSVParser reads prompts from the first column of a CSV file
type CSVParser struct{}

// NewCSVParser creates a CSV prompt parser
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Extensions returns the handled extensions
func (p *CSVParser) Extensions() []string {
	return []string{".csv"}
}

// Parse returns the first cell of every row after the header. Rows may have
// any number of fields; blank lines are skipped by the reader.
func (p *CSVParser) Parse(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var cells []string
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		cells = append(cells, firstCell(record))
	}
	return cells, nil
}

func firstCell(record []string) string {
	if len(record) == 0 {
		return ""
	}
	return strings.TrimSpace(record[0])
}
