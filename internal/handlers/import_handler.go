package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"retail-scraper-service/internal/csvparser"
	"retail-scraper-service/internal/models"
)

// ProductImporter runs product imports and reports on past runs
type ProductImporter interface {
	ImportProducts(ctx context.Context, filePath string) (*models.ImportResult, error)
	GetImportRun(ctx context.Context, id string) (*models.ImportRun, error)
}

type ImportHandler struct {
	importer       ProductImporter
	importDir      string
	maxUploadBytes int64
	logger         *logrus.Entry
}

func NewImportHandler(importer ProductImporter, importDir string, maxUploadMB int, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		importer:       importer,
		importDir:      importDir,
		maxUploadBytes: int64(maxUploadMB) << 20,
		logger:         logger.WithField("component", "import-handler"),
	}
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/products/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	template := models.ProductImportTemplate()

	switch c.DefaultQuery("format", "json") {
	case string(models.ImportFormatCSV):
		h.generateCSVTemplate(c, template)
	case string(models.ImportFormatXLSX):
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate writes the header row only
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate writes a Products sheet with marked required headers
// and an Instructions sheet describing each column
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := csvparser.ProductsSheet
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		style := headerStyle
		if col.Required {
			headerText = col.Name + " *"
			style = requiredStyle
		}
		f.SetCellValue(sheetName, cell, headerText)
		f.SetCellStyle(sheetName, cell, cell, style)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 22)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")
	f.SetCellValue("Instructions", "A3", "ACTIONS:")
	f.SetCellValue("Instructions", "A4", "- create: inserts a new product. MPN + pack size must not exist yet.")
	f.SetCellValue("Instructions", "A5", "- update: overwrites product_id and replaces its images and retailer link.")
	f.SetCellValue("Instructions", "A6", "- Rows with any other action are skipped and counted as dropped.")
	f.SetCellValue("Instructions", "A8", "REFERENCE DATA:")
	f.SetCellValue("Instructions", "A9", "- Retailers MUST exist. All unknown retailer titles are reported together.")
	f.SetCellValue("Instructions", "A10", "- Pack sizes are created automatically from name, weight, weight unit and amount.")
	f.SetCellValue("Instructions", "A11", "- The whole file is imported in one transaction: any error leaves the catalog unchanged.")

	f.SetCellValue("Instructions", "A13", "Column")
	f.SetCellValue("Instructions", "B13", "Description")
	f.SetCellValue("Instructions", "C13", "Required")
	f.SetCellValue("Instructions", "D13", "Type")
	f.SetCellValue("Instructions", "E13", "Example")

	for i, col := range template.Columns {
		row := i + 14
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 28)
	f.SetColWidth("Instructions", "B", "B", 70)
	f.SetColWidth("Instructions", "C", "D", 12)
	f.SetColWidth("Instructions", "E", "E", 50)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}

// ImportProducts imports products from an uploaded CSV or Excel file
// POST /api/v1/products/import
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "FILE_REQUIRED", "Please upload a CSV or Excel file")
		return
	}

	name := filepath.Base(file.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "."+string(models.ImportFormatCSV) && ext != "."+string(models.ImportFormatXLSX) {
		badRequest(c, "INVALID_FORMAT", "Only CSV and XLSX files are supported")
		return
	}

	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUploadBytes>>20),
			},
		})
		return
	}

	// Each upload gets its own directory so the original file name is kept
	stagingDir := filepath.Join(h.importDir, uuid.New().String())
	path := filepath.Join(stagingDir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.logger.WithError(err).Error("Failed to stage uploaded file")
		respondError(c, err, "UPLOAD_FAILED", "Failed to store uploaded file")
		return
	}
	defer func() {
		if err := os.RemoveAll(stagingDir); err != nil {
			h.logger.WithError(err).Warn("Failed to remove staged upload")
		}
	}()

	result, err := h.importer.ImportProducts(c.Request.Context(), path)
	if err != nil {
		respondError(c, err, "IMPORT_FAILED", "Failed to import products")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetImportRun returns the stored outcome of an import
// GET /api/v1/products/import/runs/:id
func (h *ImportHandler) GetImportRun(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		badRequest(c, "INVALID_ID", "Invalid import ID")
		return
	}

	run, err := h.importer.GetImportRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "FETCH_FAILED", "Failed to retrieve import run")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    run,
	})
}
