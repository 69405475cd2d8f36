package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"retail-scraper-service/internal/models"
	"retail-scraper-service/internal/repository"
)

// memoryStore is the table state behind memoryRepository
type memoryStore struct {
	retailers []models.Retailer
	packSizes []models.PackSize
	products  []models.Product
	images    []models.ProductImage
	links     []models.ProductRetailer
	lastID    map[string]uint
}

func (s *memoryStore) clone() *memoryStore {
	lastID := make(map[string]uint, len(s.lastID))
	for table, id := range s.lastID {
		lastID[table] = id
	}
	return &memoryStore{
		retailers: append([]models.Retailer(nil), s.retailers...),
		packSizes: append([]models.PackSize(nil), s.packSizes...),
		products:  append([]models.Product(nil), s.products...),
		images:    append([]models.ProductImage(nil), s.images...),
		links:     append([]models.ProductRetailer(nil), s.links...),
		lastID:    lastID,
	}
}

func (s *memoryStore) nextID(table string) uint {
	s.lastID[table]++
	return s.lastID[table]
}

// memoryRepository is an in-memory CatalogRepositoryInterface. Transactions
// snapshot the store and restore it when fn fails. The products table enforces
// the (manufacturer_part_number, pack_size_id) unique index and reports
// violations the way MySQL does.
type memoryRepository struct {
	store *memoryStore

	// failOn makes the named method return the error
	failOn map[string]error
	// hideExisting makes FindProductsByKeys report nothing, as if another
	// writer inserted the row after the lookup
	hideExisting bool

	calls         map[string]int
	invalidations int
}

var _ repository.CatalogRepositoryInterface = (*memoryRepository)(nil)

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		store:  &memoryStore{lastID: map[string]uint{}},
		failOn: map[string]error{},
		calls:  map[string]int{},
	}
}

func (r *memoryRepository) call(method string) error {
	r.calls[method]++
	return r.failOn[method]
}

// seeding helpers

func (r *memoryRepository) addRetailer(title string) models.Retailer {
	retailer := models.Retailer{ID: r.store.nextID("retailers"), Title: title}
	r.store.retailers = append(r.store.retailers, retailer)
	return retailer
}

func (r *memoryRepository) addPackSize(name, weight, unit, amount string) models.PackSize {
	packSize := models.PackSize{
		ID:         r.store.nextID("pack_sizes"),
		Name:       name,
		Weight:     decimal.RequireFromString(weight),
		WeightUnit: unit,
		Amount:     decimal.RequireFromString(amount),
	}
	r.store.packSizes = append(r.store.packSizes, packSize)
	return packSize
}

func (r *memoryRepository) addProduct(product models.Product) models.Product {
	if product.ID == 0 {
		product.ID = r.store.nextID("products")
	} else if product.ID > r.store.lastID["products"] {
		r.store.lastID["products"] = product.ID
	}
	r.store.products = append(r.store.products, product)
	return product
}

func (r *memoryRepository) addImage(productID uint, url string) {
	r.store.images = append(r.store.images, models.ProductImage{
		ID:        r.store.nextID("product_images"),
		ProductID: productID,
		FileURL:   url,
	})
}

func (r *memoryRepository) addLink(productID, retailerID uint) {
	r.store.links = append(r.store.links, models.ProductRetailer{
		ID:         r.store.nextID("product_retailers"),
		ProductID:  productID,
		RetailerID: retailerID,
	})
}

func (r *memoryRepository) product(id uint) (models.Product, bool) {
	for _, product := range r.store.products {
		if product.ID == id {
			return product, true
		}
	}
	return models.Product{}, false
}

func (r *memoryRepository) imagesOf(productID uint) []models.ProductImage {
	var images []models.ProductImage
	for _, image := range r.store.images {
		if image.ProductID == productID {
			images = append(images, image)
		}
	}
	return images
}

func (r *memoryRepository) linksOf(productID uint) []models.ProductRetailer {
	var links []models.ProductRetailer
	for _, link := range r.store.links {
		if link.ProductID == productID {
			links = append(links, link)
		}
	}
	return links
}

// counts returns row counts of products, pack_sizes, product_images and product_retailers
func (r *memoryRepository) counts() [4]int {
	return [4]int{len(r.store.products), len(r.store.packSizes), len(r.store.images), len(r.store.links)}
}

// CatalogRepositoryInterface

func (r *memoryRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.CatalogRepositoryInterface) error) error {
	if err := r.call("WithTransaction"); err != nil {
		return err
	}
	snapshot := r.store.clone()
	if err := fn(r); err != nil {
		r.store = snapshot
		return err
	}
	return nil
}

func (r *memoryRepository) ListRetailers(ctx context.Context) ([]models.Retailer, error) {
	if err := r.call("ListRetailers"); err != nil {
		return nil, err
	}
	return append([]models.Retailer(nil), r.store.retailers...), nil
}

func (r *memoryRepository) CreateRetailer(ctx context.Context, retailer *models.Retailer) error {
	if err := r.call("CreateRetailer"); err != nil {
		return err
	}
	retailer.ID = r.store.nextID("retailers")
	r.store.retailers = append(r.store.retailers, *retailer)
	return nil
}

func (r *memoryRepository) ListPackSizes(ctx context.Context) ([]models.PackSize, error) {
	if err := r.call("ListPackSizes"); err != nil {
		return nil, err
	}
	return append([]models.PackSize(nil), r.store.packSizes...), nil
}

func (r *memoryRepository) GetPackSizeByID(ctx context.Context, id uint) (*models.PackSize, error) {
	if err := r.call("GetPackSizeByID"); err != nil {
		return nil, err
	}
	for _, packSize := range r.store.packSizes {
		if packSize.ID == id {
			packSize := packSize
			return &packSize, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepository) CreatePackSizes(ctx context.Context, packSizes []*models.PackSize) error {
	if err := r.call("CreatePackSizes"); err != nil {
		return err
	}
	for _, packSize := range packSizes {
		packSize.ID = r.store.nextID("pack_sizes")
		r.store.packSizes = append(r.store.packSizes, *packSize)
	}
	return nil
}

func (r *memoryRepository) CreateProducts(ctx context.Context, products []*models.Product) error {
	if err := r.call("CreateProducts"); err != nil {
		return err
	}
	for _, product := range products {
		if err := r.checkUnique(product); err != nil {
			return err
		}
		product.ID = r.store.nextID("products")
		r.store.products = append(r.store.products, *product)
	}
	return nil
}

func (r *memoryRepository) checkUnique(candidate *models.Product) error {
	if candidate.PackSizeID == nil {
		return nil
	}
	for _, product := range r.store.products {
		if product.ID == candidate.ID || product.PackSizeID == nil {
			continue
		}
		if product.ManufacturerPartNumber == candidate.ManufacturerPartNumber && *product.PackSizeID == *candidate.PackSizeID {
			return fmt.Errorf("Error 1062 (23000): Duplicate entry '%s-%d' for key 'products.products_mpn_pack_size_unique'",
				candidate.ManufacturerPartNumber, *candidate.PackSizeID)
		}
	}
	return nil
}

func (r *memoryRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := r.call("UpdateProduct"); err != nil {
		return err
	}
	if err := r.checkUnique(product); err != nil {
		return err
	}
	for i, existing := range r.store.products {
		if existing.ID != product.ID {
			continue
		}
		existing.Title = product.Title
		existing.Description = product.Description
		existing.ManufacturerPartNumber = product.ManufacturerPartNumber
		existing.PackSizeID = product.PackSizeID
		existing.UpdatedAt = product.UpdatedAt
		r.store.products[i] = existing
	}
	return nil
}

func (r *memoryRepository) FindProductsByKeys(ctx context.Context, keys []models.ProductKey) ([]models.Product, error) {
	if err := r.call("FindProductsByKeys"); err != nil {
		return nil, err
	}
	if r.hideExisting {
		return nil, nil
	}
	wanted := make(map[models.ProductKey]bool, len(keys))
	for _, key := range keys {
		wanted[key] = true
	}
	var matches []models.Product
	for _, product := range r.store.products {
		if product.PackSizeID == nil {
			continue
		}
		if wanted[models.ProductKey{ManufacturerPartNumber: product.ManufacturerPartNumber, PackSizeID: *product.PackSizeID}] {
			matches = append(matches, r.withRelations(product))
		}
	}
	return matches, nil
}

func (r *memoryRepository) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	if err := r.call("GetProductByID"); err != nil {
		return nil, err
	}
	product, ok := r.product(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	product = r.withRelations(product)
	return &product, nil
}

func (r *memoryRepository) ListProducts(ctx context.Context, page, limit int) ([]models.Product, int64, error) {
	if err := r.call("ListProducts"); err != nil {
		return nil, 0, err
	}
	all := r.sortedProducts()
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *memoryRepository) ListProductsWithRelations(ctx context.Context) ([]models.Product, error) {
	if err := r.call("ListProductsWithRelations"); err != nil {
		return nil, err
	}
	return r.sortedProducts(), nil
}

func (r *memoryRepository) sortedProducts() []models.Product {
	products := make([]models.Product, 0, len(r.store.products))
	for _, product := range r.store.products {
		products = append(products, r.withRelations(product))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func (r *memoryRepository) withRelations(product models.Product) models.Product {
	if product.PackSizeID != nil {
		for _, packSize := range r.store.packSizes {
			if packSize.ID == *product.PackSizeID {
				packSize := packSize
				product.PackSize = &packSize
			}
		}
	}
	product.Images = r.imagesOf(product.ID)
	product.Retailers = nil
	for _, link := range r.linksOf(product.ID) {
		for _, retailer := range r.store.retailers {
			if retailer.ID == link.RetailerID {
				retailer := retailer
				link.Retailer = &retailer
			}
		}
		product.Retailers = append(product.Retailers, link)
	}
	return product
}

func (r *memoryRepository) CreateProductImages(ctx context.Context, images []*models.ProductImage) error {
	if err := r.call("CreateProductImages"); err != nil {
		return err
	}
	for _, image := range images {
		image.ID = r.store.nextID("product_images")
		r.store.images = append(r.store.images, *image)
	}
	return nil
}

func (r *memoryRepository) DeleteProductImages(ctx context.Context, productIDs []uint) error {
	if err := r.call("DeleteProductImages"); err != nil {
		return err
	}
	remove := idSet(productIDs)
	kept := r.store.images[:0:0]
	for _, image := range r.store.images {
		if !remove[image.ProductID] {
			kept = append(kept, image)
		}
	}
	r.store.images = kept
	return nil
}

func (r *memoryRepository) CreateProductRetailers(ctx context.Context, links []*models.ProductRetailer) error {
	if err := r.call("CreateProductRetailers"); err != nil {
		return err
	}
	for _, link := range links {
		link.ID = r.store.nextID("product_retailers")
		r.store.links = append(r.store.links, *link)
	}
	return nil
}

func (r *memoryRepository) DeleteProductRetailers(ctx context.Context, productIDs []uint) error {
	if err := r.call("DeleteProductRetailers"); err != nil {
		return err
	}
	remove := idSet(productIDs)
	kept := r.store.links[:0:0]
	for _, link := range r.store.links {
		if !remove[link.ProductID] {
			kept = append(kept, link)
		}
	}
	r.store.links = kept
	return nil
}

func (r *memoryRepository) InvalidateCatalogCaches(ctx context.Context) {
	r.invalidations++
}

func idSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
