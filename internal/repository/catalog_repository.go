package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"retail-scraper-service/internal/models"
)

var ErrNotFound = errors.New("not found")

// Cache TTL constants
const (
	ProductCacheTTL   = 5 * time.Minute
	ReferenceCacheTTL = 30 * time.Minute // retailers and pack sizes rarely change
)

// InsertBatchSize bounds the number of rows per INSERT statement.
const InsertBatchSize = 500

const (
	retailersListKey = "retailers:list"
	packSizesListKey = "pack_sizes:list"
)

// CatalogRepositoryInterface is the transactional data store used by the import pipeline.
type CatalogRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn func(txRepo CatalogRepositoryInterface) error) error

	ListRetailers(ctx context.Context) ([]models.Retailer, error)
	CreateRetailer(ctx context.Context, retailer *models.Retailer) error

	ListPackSizes(ctx context.Context) ([]models.PackSize, error)
	GetPackSizeByID(ctx context.Context, id uint) (*models.PackSize, error)
	CreatePackSizes(ctx context.Context, packSizes []*models.PackSize) error

	CreateProducts(ctx context.Context, products []*models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	FindProductsByKeys(ctx context.Context, keys []models.ProductKey) ([]models.Product, error)
	GetProductByID(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, page, limit int) ([]models.Product, int64, error)
	ListProductsWithRelations(ctx context.Context) ([]models.Product, error)

	CreateProductImages(ctx context.Context, images []*models.ProductImage) error
	DeleteProductImages(ctx context.Context, productIDs []uint) error
	CreateProductRetailers(ctx context.Context, links []*models.ProductRetailer) error
	DeleteProductRetailers(ctx context.Context, productIDs []uint) error

	InvalidateCatalogCaches(ctx context.Context)
}

type CatalogRepository struct {
	db    *gorm.DB
	cache *cache.CacheLayer
}

var _ CatalogRepositoryInterface = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB, redis *redis.Client) *CatalogRepository {
	repo := &CatalogRepository{db: db}

	if redis != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: ProductCacheTTL,
			KeyPrefix:  "retail:catalog:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redis, cacheConfig)
	}

	return repo
}

// WithTransaction runs fn against a repository bound to a single transaction.
// The transactional repository bypasses the cache so reads see uncommitted writes.
func (r *CatalogRepository) WithTransaction(ctx context.Context, fn func(txRepo CatalogRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CatalogRepository{db: tx})
	})
}

// InvalidateCatalogCaches drops every cached catalog read
func (r *CatalogRepository) InvalidateCatalogCaches(ctx context.Context) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, retailersListKey, packSizesListKey)
	_ = r.cache.DeletePattern(ctx, "product:*")
}

// Retailers

func (r *CatalogRepository) ListRetailers(ctx context.Context) ([]models.Retailer, error) {
	if r.cache != nil {
		var retailers []models.Retailer
		err := r.cache.GetOrSetJSON(ctx, retailersListKey, &retailers, ReferenceCacheTTL, func() (any, error) {
			return r.listRetailers(ctx)
		})
		if err != nil {
			return nil, err
		}
		return retailers, nil
	}
	return r.listRetailers(ctx)
}

func (r *CatalogRepository) listRetailers(ctx context.Context) ([]models.Retailer, error) {
	var retailers []models.Retailer
	err := r.db.WithContext(ctx).Order("title ASC").Find(&retailers).Error
	return retailers, err
}

func (r *CatalogRepository) CreateRetailer(ctx context.Context, retailer *models.Retailer) error {
	if err := r.db.WithContext(ctx).Create(retailer).Error; err != nil {
		return err
	}
	if r.cache != nil {
		_ = r.cache.Delete(ctx, retailersListKey)
	}
	return nil
}

// Pack sizes

func (r *CatalogRepository) ListPackSizes(ctx context.Context) ([]models.PackSize, error) {
	if r.cache != nil {
		var packSizes []models.PackSize
		err := r.cache.GetOrSetJSON(ctx, packSizesListKey, &packSizes, ReferenceCacheTTL, func() (any, error) {
			return r.listPackSizes(ctx)
		})
		if err != nil {
			return nil, err
		}
		return packSizes, nil
	}
	return r.listPackSizes(ctx)
}

func (r *CatalogRepository) listPackSizes(ctx context.Context) ([]models.PackSize, error) {
	var packSizes []models.PackSize
	err := r.db.WithContext(ctx).Order("id ASC").Find(&packSizes).Error
	return packSizes, err
}

func (r *CatalogRepository) GetPackSizeByID(ctx context.Context, id uint) (*models.PackSize, error) {
	var packSize models.PackSize
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&packSize).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &packSize, nil
}

// CreatePackSizes inserts pack sizes in batches; generated IDs are written back.
func (r *CatalogRepository) CreatePackSizes(ctx context.Context, packSizes []*models.PackSize) error {
	if len(packSizes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(packSizes, InsertBatchSize).Error
}

// Products

// CreateProducts inserts products in batches; generated IDs are written back
// in slice order.
func (r *CatalogRepository) CreateProducts(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(products, InsertBatchSize).Error
}

// UpdateProduct writes the import-owned columns of one product. created_at is left untouched.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"title":                    product.Title,
			"description":              product.Description,
			"manufacturer_part_number": product.ManufacturerPartNumber,
			"pack_size_id":             product.PackSizeID,
			"updated_at":               product.UpdatedAt,
		}).Error
}

// FindProductsByKeys returns existing products matching any of the natural keys,
// with their pack size loaded.
func (r *CatalogRepository) FindProductsByKeys(ctx context.Context, keys []models.ProductKey) ([]models.Product, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	wanted := make(map[models.ProductKey]bool, len(keys))
	mpns := make([]string, 0, len(keys))
	packSizeIDs := make([]uint, 0, len(keys))
	for _, key := range keys {
		if wanted[key] {
			continue
		}
		wanted[key] = true
		mpns = append(mpns, key.ManufacturerPartNumber)
		packSizeIDs = append(packSizeIDs, key.PackSizeID)
	}

	var candidates []models.Product
	err := r.db.WithContext(ctx).
		Preload("PackSize").
		Where("manufacturer_part_number IN ? AND pack_size_id IN ?", mpns, packSizeIDs).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	matches := make([]models.Product, 0, len(candidates))
	for _, product := range candidates {
		if product.PackSizeID == nil {
			continue
		}
		if wanted[models.ProductKey{ManufacturerPartNumber: product.ManufacturerPartNumber, PackSizeID: *product.PackSizeID}] {
			matches = append(matches, product)
		}
	}
	return matches, nil
}

// GetProductByID retrieves a product with its pack size, images and retailer links
func (r *CatalogRepository) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	load := func() (*models.Product, error) {
		var product models.Product
		err := r.db.WithContext(ctx).
			Preload("PackSize").
			Preload("Images").
			Preload("Retailers.Retailer").
			Where("id = ?", id).
			First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return &product, nil
	}

	if r.cache != nil {
		var product models.Product
		err := r.cache.GetOrSetJSON(ctx, fmt.Sprintf("product:%d", id), &product, ProductCacheTTL, func() (any, error) {
			return load()
		})
		if err != nil {
			return nil, err
		}
		return &product, nil
	}
	return load()
}

func (r *CatalogRepository) ListProducts(ctx context.Context, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).Preload("PackSize").Order("id ASC").Offset(offset).Limit(limit).Find(&products).Error
	return products, total, err
}

// ListProductsWithRelations loads the whole catalog for export
func (r *CatalogRepository) ListProductsWithRelations(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("PackSize").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Retailers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Retailers.Retailer").
		Order("id ASC").
		Find(&products).Error
	return products, err
}

// Dependent rows

func (r *CatalogRepository) CreateProductImages(ctx context.Context, images []*models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(images, InsertBatchSize).Error
}

func (r *CatalogRepository) DeleteProductImages(ctx context.Context, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Delete(&models.ProductImage{}).Error
}

func (r *CatalogRepository) CreateProductRetailers(ctx context.Context, links []*models.ProductRetailer) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(links, InsertBatchSize).Error
}

func (r *CatalogRepository) DeleteProductRetailers(ctx context.Context, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Delete(&models.ProductRetailer{}).Error
}
