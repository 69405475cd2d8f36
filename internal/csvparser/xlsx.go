package csvparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"retail-scraper-service/internal/apperrors"
)

// ProductsSheet is preferred over the first sheet when a workbook has it.
const ProductsSheet = "Products"

// ParseXLSX reads the products sheet of a workbook into rows with the same
// header handling as Parse. A trailing " *" required marker is removed from headers.
func ParseXLSX(r io.Reader, opt Options) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, ProductsSheet) {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) == 0 || isBlank(excelRows[0]) {
		return nil, apperrors.EmptyInputError()
	}

	headers := make([]string, len(excelRows[0]))
	for i, header := range excelRows[0] {
		headers[i] = strings.TrimSuffix(strings.TrimSpace(header), " *")
	}
	headers = DisambiguateHeaders(headers)

	var rows []Row
	for _, excelRow := range excelRows[1:] {
		if isBlank(excelRow) {
			continue
		}
		rows = append(rows, buildRow(headers, excelRow, opt))
	}

	return rows, nil
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
