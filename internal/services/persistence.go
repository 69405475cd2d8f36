package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-scraper-service/internal/apperrors"
	"retail-scraper-service/internal/models"
	"retail-scraper-service/internal/repository"
)

// ImageURLSeparator separates URLs inside the image_urls column
const ImageURLSeparator = "|"

// CheckDuplicates rejects create entities whose (mpn, pack size) already exists
// in the store or appears twice in the batch. Entities without a pack size are
// not checked.
func CheckDuplicates(ctx context.Context, repo repository.CatalogRepositoryInterface, entities []*models.Product, packSizes []models.PackSize) error {
	byID := make(map[uint]models.PackSize, len(packSizes))
	for _, packSize := range packSizes {
		byID[packSize.ID] = packSize
	}

	var keys []models.ProductKey
	seen := make(map[models.ProductKey]bool, len(entities))
	for _, entity := range entities {
		if entity.PackSizeID == nil {
			continue
		}
		key := models.ProductKey{ManufacturerPartNumber: entity.ManufacturerPartNumber, PackSizeID: *entity.PackSizeID}
		if seen[key] {
			return apperrors.DuplicateProductError(key.ManufacturerPartNumber, byID[key.PackSizeID].Describe(), nil)
		}
		seen[key] = true
		keys = append(keys, key)
	}

	existing, err := repo.FindProductsByKeys(ctx, keys)
	if err != nil {
		return fmt.Errorf("failed to check existing products: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	product := existing[0]
	packSize, ok := byID[*product.PackSizeID]
	if product.PackSize != nil {
		packSize, ok = *product.PackSize, true
	}
	if !ok {
		return fmt.Errorf("product %s already exists with pack size %d", product.ManufacturerPartNumber, *product.PackSizeID)
	}
	return apperrors.DuplicateProductError(product.ManufacturerPartNumber, packSize.Describe(), nil)
}

// BulkStore inserts the create batch and its images and retailer links.
// It returns the number of products inserted.
func BulkStore(ctx context.Context, repo repository.CatalogRepositoryInterface, batch Batch, retailers []models.Retailer, now time.Time) (int, error) {
	if len(batch.Entities) == 0 {
		return 0, nil
	}

	if err := repo.CreateProducts(ctx, batch.Entities); err != nil {
		return 0, err
	}

	productIDs, err := insertedIDs(ctx, repo, batch.Entities)
	if err != nil {
		return 0, err
	}

	retailerIDs := retailerIndex(retailers)
	var images []*models.ProductImage
	var links []*models.ProductRetailer
	for i, raw := range batch.Raw {
		productID := productIDs[i]
		if productID == 0 {
			continue
		}
		images = append(images, buildImages(raw, productID, raw.FileName, now)...)
		if link := buildLink(raw, productID, retailerIDs, now); link != nil {
			links = append(links, link)
		}
	}

	if err := insertDependents(ctx, repo, images, links); err != nil {
		return 0, err
	}

	return len(batch.Entities), nil
}

// BulkUpdate replaces the images and retailer links of every product in the
// update batch and then updates each product row. It returns the number of
// entities processed.
func BulkUpdate(ctx context.Context, repo repository.CatalogRepositoryInterface, batch Batch, retailers []models.Retailer, now time.Time) (int, error) {
	if len(batch.Entities) == 0 {
		return 0, nil
	}

	var productIDs []uint
	seen := make(map[uint]bool)
	for _, raw := range batch.Raw {
		if raw.ID == 0 || seen[raw.ID] {
			continue
		}
		seen[raw.ID] = true
		productIDs = append(productIDs, raw.ID)
	}

	if len(productIDs) > 0 {
		if err := repo.DeleteProductImages(ctx, productIDs); err != nil {
			return 0, fmt.Errorf("failed to delete product images: %w", err)
		}
		if err := repo.DeleteProductRetailers(ctx, productIDs); err != nil {
			return 0, fmt.Errorf("failed to delete product retailers: %w", err)
		}
	}

	retailerIDs := retailerIndex(retailers)
	var images []*models.ProductImage
	var links []*models.ProductRetailer
	for _, raw := range batch.Raw {
		if raw.ID == 0 {
			continue
		}
		fileName := raw.FileName
		if fileName == "" {
			fileName = raw.Title + " image"
		}
		images = append(images, buildImages(raw, raw.ID, fileName, now)...)
		if link := buildLink(raw, raw.ID, retailerIDs, now); link != nil {
			links = append(links, link)
		}
	}

	if err := insertDependents(ctx, repo, images, links); err != nil {
		return 0, err
	}

	for _, entity := range batch.Entities {
		if entity.ID == 0 {
			continue
		}
		if err := repo.UpdateProduct(ctx, entity); err != nil {
			return 0, err
		}
	}

	return len(batch.Entities), nil
}

// insertedIDs returns the surrogate id of every entity in slice order. IDs are
// taken from the insert itself; entities the store did not report an id for are
// looked up by natural key.
func insertedIDs(ctx context.Context, repo repository.CatalogRepositoryInterface, entities []*models.Product) ([]uint, error) {
	ids := make([]uint, len(entities))
	var missing []models.ProductKey
	for i, entity := range entities {
		ids[i] = entity.ID
		if entity.ID == 0 && entity.PackSizeID != nil {
			missing = append(missing, models.ProductKey{ManufacturerPartNumber: entity.ManufacturerPartNumber, PackSizeID: *entity.PackSizeID})
		}
	}
	if len(missing) == 0 {
		return ids, nil
	}

	found, err := repo.FindProductsByKeys(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to look up inserted products: %w", err)
	}
	lookup := make(map[models.ProductKey]uint, len(found))
	for _, product := range found {
		lookup[models.ProductKey{ManufacturerPartNumber: product.ManufacturerPartNumber, PackSizeID: *product.PackSizeID}] = product.ID
	}
	for i, entity := range entities {
		if ids[i] == 0 && entity.PackSizeID != nil {
			ids[i] = lookup[models.ProductKey{ManufacturerPartNumber: entity.ManufacturerPartNumber, PackSizeID: *entity.PackSizeID}]
		}
	}
	return ids, nil
}

func insertDependents(ctx context.Context, repo repository.CatalogRepositoryInterface, images []*models.ProductImage, links []*models.ProductRetailer) error {
	if len(images) > 0 {
		if err := repo.CreateProductImages(ctx, images); err != nil {
			return fmt.Errorf("failed to create product images: %w", err)
		}
	}
	if len(links) > 0 {
		if err := repo.CreateProductRetailers(ctx, links); err != nil {
			return fmt.Errorf("failed to create product retailers: %w", err)
		}
	}
	return nil
}

func buildImages(raw RawRecord, productID uint, fileName string, now time.Time) []*models.ProductImage {
	if raw.ImageURLs == "" {
		return nil
	}

	var images []*models.ProductImage
	for _, url := range strings.Split(raw.ImageURLs, ImageURLSeparator) {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		images = append(images, &models.ProductImage{
			ProductID: productID,
			FileURL:   url,
			FileName:  fileName,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return images
}

func buildLink(raw RawRecord, productID uint, retailerIDs map[string]uint, now time.Time) *models.ProductRetailer {
	retailerID, ok := retailerIDs[raw.RetailerTitle]
	if raw.RetailerTitle == "" || !ok {
		return nil
	}
	return &models.ProductRetailer{
		ProductID:  productID,
		RetailerID: retailerID,
		ProductURL: optionalString(raw.ProductURL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func retailerIndex(retailers []models.Retailer) map[string]uint {
	index := make(map[string]uint, len(retailers))
	for _, retailer := range retailers {
		index[retailer.Title] = retailer.ID
	}
	return index
}
