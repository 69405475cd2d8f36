package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"retail-scraper-service/internal/models"
	"retail-scraper-service/internal/repository"
	"retail-scraper-service/internal/services"
)

// CatalogExporter renders the catalog as rows in the import layout
type CatalogExporter interface {
	Rows(ctx context.Context) ([][]string, error)
}

type CatalogHandler struct {
	repo            repository.CatalogRepositoryInterface
	exporter        CatalogExporter
	defaultPageSize int
	maxPageSize     int
}

func NewCatalogHandler(repo repository.CatalogRepositoryInterface, exporter CatalogExporter, defaultPageSize, maxPageSize int) *CatalogHandler {
	if maxPageSize < 1 {
		maxPageSize = 1
	}
	if defaultPageSize < 1 || defaultPageSize > maxPageSize {
		defaultPageSize = maxPageSize
	}
	return &CatalogHandler{
		repo:            repo,
		exporter:        exporter,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// GetProducts returns a page of products
// GET /api/v1/products
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > h.maxPageSize {
		limit = h.defaultPageSize
	}

	products, total, err := h.repo.ListProducts(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err, "FETCH_FAILED", "Failed to retrieve products")
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// GetProduct returns one product with its pack size, images and retailer links
// GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "INVALID_ID", "Invalid product ID")
		return
	}

	product, err := h.repo.GetProductByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err, "FETCH_FAILED", "Failed to retrieve product")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// GetRetailers lists every retailer
// GET /api/v1/retailers
func (h *CatalogHandler) GetRetailers(c *gin.Context) {
	retailers, err := h.repo.ListRetailers(c.Request.Context())
	if err != nil {
		respondError(c, err, "FETCH_FAILED", "Failed to retrieve retailers")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: retailers})
}

// CreateRetailer registers a retailer so import rows can reference it
// POST /api/v1/retailers
func (h *CatalogHandler) CreateRetailer(c *gin.Context) {
	var req models.CreateRetailerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", err.Error())
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		badRequest(c, "VALIDATION_ERROR", "Retailer title is required")
		return
	}

	now := time.Now()
	retailer := &models.Retailer{
		Title:     title,
		BaseURL:   req.BaseURL,
		LogoURL:   req.LogoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.CreateRetailer(c.Request.Context(), retailer); err != nil {
		respondError(c, err, "CREATE_FAILED", "Failed to create retailer")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: retailer})
}

// GetPackSizes lists every pack size
// GET /api/v1/pack-sizes
func (h *CatalogHandler) GetPackSizes(c *gin.Context) {
	packSizes, err := h.repo.ListPackSizes(c.Request.Context())
	if err != nil {
		respondError(c, err, "FETCH_FAILED", "Failed to retrieve pack sizes")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: packSizes})
}

// ExportProducts downloads the catalog in the import layout
// GET /api/v1/products/export
func (h *CatalogHandler) ExportProducts(c *gin.Context) {
	format := c.DefaultQuery("format", string(models.ImportFormatCSV))
	if format != string(models.ImportFormatCSV) && format != string(models.ImportFormatXLSX) {
		badRequest(c, "INVALID_FORMAT", "Only csv and xlsx exports are supported")
		return
	}

	rows, err := h.exporter.Rows(c.Request.Context())
	if err != nil {
		respondError(c, err, "EXPORT_FAILED", "Failed to export products")
		return
	}

	filename := "products_export_" + time.Now().UTC().Format("20060102-150405") + "." + format
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if format == string(models.ImportFormatXLSX) {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = services.WriteXLSX(c.Writer, rows)
	} else {
		c.Header("Content-Type", "text/csv")
		err = services.WriteCSV(c.Writer, rows)
	}
	if err != nil {
		c.Error(err)
	}
}
