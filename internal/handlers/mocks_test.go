package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"retail-scraper-service/internal/models"
	"retail-scraper-service/internal/repository"
)

// MockProductImporter is a mock implementation of ProductImporter
type MockProductImporter struct {
	mock.Mock
}

func (m *MockProductImporter) ImportProducts(ctx context.Context, filePath string) (*models.ImportResult, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportResult), args.Error(1)
}

func (m *MockProductImporter) GetImportRun(ctx context.Context, id string) (*models.ImportRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportRun), args.Error(1)
}

// MockCatalogExporter is a mock implementation of CatalogExporter
type MockCatalogExporter struct {
	mock.Mock
}

func (m *MockCatalogExporter) Rows(ctx context.Context) ([][]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]string), args.Error(1)
}

// MockCatalogRepository is a mock implementation of CatalogRepositoryInterface
type MockCatalogRepository struct {
	mock.Mock
}

var _ repository.CatalogRepositoryInterface = (*MockCatalogRepository)(nil)

func (m *MockCatalogRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.CatalogRepositoryInterface) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m)
}

func (m *MockCatalogRepository) ListRetailers(ctx context.Context) ([]models.Retailer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Retailer), args.Error(1)
}

func (m *MockCatalogRepository) CreateRetailer(ctx context.Context, retailer *models.Retailer) error {
	args := m.Called(ctx, retailer)
	if args.Error(0) == nil {
		retailer.ID = 1
	}
	return args.Error(0)
}

func (m *MockCatalogRepository) ListPackSizes(ctx context.Context) ([]models.PackSize, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.PackSize), args.Error(1)
}

func (m *MockCatalogRepository) GetPackSizeByID(ctx context.Context, id uint) (*models.PackSize, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PackSize), args.Error(1)
}

func (m *MockCatalogRepository) CreatePackSizes(ctx context.Context, packSizes []*models.PackSize) error {
	args := m.Called(ctx, packSizes)
	return args.Error(0)
}

func (m *MockCatalogRepository) CreateProducts(ctx context.Context, products []*models.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func (m *MockCatalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogRepository) FindProductsByKeys(ctx context.Context, keys []models.ProductKey) ([]models.Product, error) {
	args := m.Called(ctx, keys)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalogRepository) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogRepository) ListProducts(ctx context.Context, page, limit int) ([]models.Product, int64, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockCatalogRepository) ListProductsWithRelations(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalogRepository) CreateProductImages(ctx context.Context, images []*models.ProductImage) error {
	args := m.Called(ctx, images)
	return args.Error(0)
}

func (m *MockCatalogRepository) DeleteProductImages(ctx context.Context, productIDs []uint) error {
	args := m.Called(ctx, productIDs)
	return args.Error(0)
}

func (m *MockCatalogRepository) CreateProductRetailers(ctx context.Context, links []*models.ProductRetailer) error {
	args := m.Called(ctx, links)
	return args.Error(0)
}

func (m *MockCatalogRepository) DeleteProductRetailers(ctx context.Context, productIDs []uint) error {
	args := m.Called(ctx, productIDs)
	return args.Error(0)
}

func (m *MockCatalogRepository) InvalidateCatalogCaches(ctx context.Context) {
	m.Called(ctx)
}
