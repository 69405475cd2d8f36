package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"retail-scraper-service/internal/csvparser"
	"retail-scraper-service/internal/models"
	"retail-scraper-service/internal/repository"
)

// ExportService writes the catalog in the import column layout so an export
// can be edited and imported back as update rows.
type ExportService struct {
	repo repository.CatalogRepositoryInterface
}

func NewExportService(repo repository.CatalogRepositoryInterface) *ExportService {
	return &ExportService{repo: repo}
}

// Rows returns the header row followed by one row per product
func (s *ExportService) Rows(ctx context.Context) ([][]string, error) {
	products, err := s.repo.ListProductsWithRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	headers := models.ProductImportHeaders()
	rows := make([][]string, 0, len(products)+1)
	rows = append(rows, headers)
	for _, product := range products {
		values := exportValues(product)
		record := make([]string, len(headers))
		for i, header := range headers {
			record[i] = values[header]
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// WriteCSV writes rows as CSV
func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes rows to a workbook with a single Products sheet
func WriteXLSX(w io.Writer, rows [][]string) error {
	if len(rows) == 0 {
		return fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := csvparser.ProductsSheet
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := make([]interface{}, len(row))
		for j, value := range row {
			values[j] = value
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(rows[0]))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(sheetName, "A", lastCol, 20)

	return f.Write(w)
}

func exportValues(product models.Product) map[string]string {
	values := map[string]string{
		models.ColumnAction:                 models.ImportActionUpdate,
		models.ColumnProductID:              strconv.FormatUint(uint64(product.ID), 10),
		models.ColumnTitle:                  product.Title,
		models.ColumnManufacturerPartNumber: product.ManufacturerPartNumber,
	}
	if product.Description != nil {
		values[models.ColumnDescription] = *product.Description
	}
	if product.PackSize != nil {
		values[models.ColumnPackSizeName] = product.PackSize.Name
		values[models.ColumnPackSizeWeight] = product.PackSize.Weight.String()
		values[models.ColumnPackSizeWeightUnit] = product.PackSize.WeightUnit
		values[models.ColumnPackSizeAmount] = product.PackSize.Amount.String()
	}

	urls := make([]string, 0, len(product.Images))
	for _, image := range product.Images {
		urls = append(urls, image.FileURL)
	}
	values[models.ColumnImageURLs] = strings.Join(urls, ImageURLSeparator)
	if len(product.Images) > 0 {
		values[models.ColumnImageName] = product.Images[0].FileName
	}

	if len(product.Retailers) > 0 {
		link := product.Retailers[0]
		if link.Retailer != nil {
			values[models.ColumnRetailerTitle] = link.Retailer.Title
		}
		if link.ProductURL != nil {
			values[models.ColumnProductURL] = *link.ProductURL
		}
	}
	return values
}
