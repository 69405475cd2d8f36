package models

import "time"

// ImportFormat represents the file format for import and export
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportStatus represents the outcome of an import run
type ImportStatus string

const (
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusCompleted  ImportStatus = "COMPLETED"
	ImportStatusFailed     ImportStatus = "FAILED"
)

// Import row actions
const (
	ImportActionCreate = "create"
	ImportActionUpdate = "update"
)

// Import column names
const (
	ColumnAction                 = "action"
	ColumnProductID              = "product_id"
	ColumnTitle                  = "title"
	ColumnDescription            = "description"
	ColumnManufacturerPartNumber = "manufacturer_part_number"
	ColumnPackSizeName           = "pack_size_name"
	ColumnPackSizeWeight         = "pack_size_weight"
	ColumnPackSizeWeightUnit     = "pack_size_weight_unit"
	ColumnPackSizeAmount         = "pack_size_amount"
	ColumnRetailerTitle          = "retailer_title"
	ColumnImageURLs              = "image_urls"
	ColumnProductURL             = "product_url"
	ColumnImageName              = "image_name"
	ColumnFileName               = "file_name"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, integer
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ImportResult is returned by a successful import.
type ImportResult struct {
	ImportID      string `json:"import_id,omitempty"`
	Message       string `json:"message"`
	Created       int    `json:"created"`
	Updated       int    `json:"updated"`
	Dropped       int    `json:"dropped"`
	ExecutionTime string `json:"execution_time"`
	MemoryUsed    string `json:"memory_used"`
	RowCount      int    `json:"row_count"`
}

// ImportRun is the persisted record of one import call, successful or not.
type ImportRun struct {
	ID         string        `json:"id"`
	FileName   string        `json:"file_name"`
	Status     ImportStatus  `json:"status"`
	Result     *ImportResult `json:"result,omitempty"`
	ErrorCode  string        `json:"error_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: ColumnAction, Description: "create or update (case-insensitive); other values are skipped", Required: true, Type: "string", Example: "create"},
		{Name: ColumnTitle, Description: "Product title", Required: true, Type: "string", Example: "Organic Oat Drink"},
		{Name: ColumnDescription, Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: ColumnManufacturerPartNumber, Description: "Manufacturer part number, unique per pack size", Required: true, Type: "string", Example: "OAT-1000"},
		{Name: ColumnPackSizeName, Description: "Pack size name - auto-creates if not exists", Required: false, Type: "string", Example: "Small"},
		{Name: ColumnPackSizeWeight, Description: "Pack size weight", Required: false, Type: "number", Example: "100"},
		{Name: ColumnPackSizeWeightUnit, Description: "Pack size weight unit", Required: false, Type: "string", Example: "g"},
		{Name: ColumnPackSizeAmount, Description: "Number of items in the pack", Required: false, Type: "number", Example: "5"},
		{Name: ColumnRetailerTitle, Description: "Retailer title - must exist", Required: false, Type: "string", Example: "Acme"},
		{Name: ColumnImageURLs, Description: "Image URLs separated by |", Required: false, Type: "string", Example: "https://cdn.example.com/a.jpg|https://cdn.example.com/b.jpg"},
		{Name: ColumnProductURL, Description: "Product page on the retailer site", Required: false, Type: "string", Example: "https://acme.example.com/p/oat-1000"},
		{Name: ColumnImageName, Description: "File name stored with the images", Required: false, Type: "string", Example: "oat-drink"},
		{Name: ColumnProductID, Description: "Existing product ID (required for update)", Required: false, Type: "integer", Example: ""},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}

// ProductImportHeaders returns the column names in template order
func ProductImportHeaders() []string {
	columns := ProductImportColumns()
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}
	return headers
}
