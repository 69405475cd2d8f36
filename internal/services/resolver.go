package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retail-scraper-service/internal/apperrors"
	"retail-scraper-service/internal/csvparser"
	"retail-scraper-service/internal/models"
	"retail-scraper-service/internal/repository"
)

// ValidateRetailers checks every retailer title referenced by rows against the
// known retailers and fails once, naming all missing titles.
func ValidateRetailers(rows []csvparser.Row, retailers []models.Retailer) error {
	known := make(map[string]bool, len(retailers))
	for _, retailer := range retailers {
		known[retailer.Title] = true
	}

	var missing []string
	reported := make(map[string]bool)
	for _, row := range rows {
		title := field(row, models.ColumnRetailerTitle)
		if title == "" || known[title] || reported[title] {
			continue
		}
		reported[title] = true
		missing = append(missing, title)
	}

	if len(missing) > 0 {
		return apperrors.MissingReferenceError(missing)
	}
	return nil
}

// ResolvePackSizes inserts, in one batch, every pack size referenced by rows
// that does not exist yet and returns existing plus inserted pack sizes.
// Rows without all four pack size fields are ignored.
func ResolvePackSizes(ctx context.Context, repo repository.CatalogRepositoryInterface, rows []csvparser.Row, existing []models.PackSize, now time.Time) ([]models.PackSize, error) {
	known := make(map[models.PackSizeKey]bool, len(existing))
	for _, packSize := range existing {
		known[packSize.Key()] = true
	}

	var pending []*models.PackSize
	for _, row := range rows {
		key, ok := rowPackSizeKey(row)
		if !ok || known[key] {
			continue
		}

		weight, err := decimal.NewFromString(key.Weight)
		if err != nil {
			return nil, fmt.Errorf("invalid pack size weight %q", field(row, models.ColumnPackSizeWeight))
		}
		amount, err := decimal.NewFromString(key.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid pack size amount %q", field(row, models.ColumnPackSizeAmount))
		}

		known[key] = true
		pending = append(pending, &models.PackSize{
			Name:       key.Name,
			Weight:     weight,
			WeightUnit: key.WeightUnit,
			Amount:     amount,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if len(pending) == 0 {
		return existing, nil
	}

	if err := repo.CreatePackSizes(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to create pack sizes: %w", err)
	}

	return repo.ListPackSizes(ctx)
}

// rowPackSizeKey returns the normalised pack size identity of a row, or false
// when any of the four pack size fields is empty.
func rowPackSizeKey(row csvparser.Row) (models.PackSizeKey, bool) {
	key := models.PackSizeKey{
		Name:       field(row, models.ColumnPackSizeName),
		Weight:     normalizeNumber(field(row, models.ColumnPackSizeWeight)),
		WeightUnit: field(row, models.ColumnPackSizeWeightUnit),
		Amount:     normalizeNumber(field(row, models.ColumnPackSizeAmount)),
	}
	if key.Name == "" || key.Weight == "" || key.WeightUnit == "" || key.Amount == "" {
		return models.PackSizeKey{}, false
	}
	return key, true
}

// normalizeNumber rewrites numeric strings to their canonical decimal form at
// the column scale, so "200", "200.0" and "200.00" compare equal and "0.125"
// matches the stored "0.13". Other strings are returned as is.
func normalizeNumber(value string) string {
	if d, err := decimal.NewFromString(value); err == nil {
		return models.CanonicalDecimal(d)
	}
	return value
}

// field returns the trimmed value of a column, empty when absent.
func field(row csvparser.Row, column string) string {
	return strings.TrimSpace(row[column])
}
