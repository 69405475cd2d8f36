package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-scraper-service/internal/csvparser"
	"retail-scraper-service/internal/models"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func packSize(id uint, name, weight, unit, amount string) models.PackSize {
	return models.PackSize{
		ID:         id,
		Name:       name,
		Weight:     decimal.RequireFromString(weight),
		WeightUnit: unit,
		Amount:     decimal.RequireFromString(amount),
	}
}

func row(values map[string]string) csvparser.Row {
	r := csvparser.Row{}
	for _, column := range models.ProductImportHeaders() {
		r[column] = ""
	}
	for column, value := range values {
		r[column] = value
	}
	return r
}

func TestClassify_SplitsByAction(t *testing.T) {
	packSizes := []models.PackSize{packSize(3, "Small", "100", "g", "5")}
	rows := []csvparser.Row{
		row(map[string]string{
			"action": "create", "title": "Oats", "manufacturer_part_number": "OAT-1",
			"pack_size_name": "Small", "pack_size_weight": "100", "pack_size_weight_unit": "g", "pack_size_amount": "5",
			"image_urls": "https://img/1.jpg", "image_name": "front", "retailer_title": "Acme", "product_url": "https://acme/oats",
		}),
		row(map[string]string{"action": "update", "product_id": "7", "title": "Rice", "manufacturer_part_number": "RICE-1"}),
		row(map[string]string{"action": "delete", "title": "Ignored"}),
		row(map[string]string{"action": "", "title": "Blank"}),
	}

	result := Classify(rows, packSizes, fixedNow)

	require.Len(t, result.Create.Entities, 1)
	require.Len(t, result.Create.Raw, 1)
	require.Len(t, result.Update.Entities, 1)
	assert.Equal(t, 2, result.Dropped)

	created := result.Create.Entities[0]
	assert.Equal(t, "Oats", created.Title)
	assert.Equal(t, uint(0), created.ID)
	require.NotNil(t, created.PackSizeID)
	assert.Equal(t, uint(3), *created.PackSizeID)
	assert.Nil(t, created.Description)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Equal(t, fixedNow, created.UpdatedAt)

	raw := result.Create.Raw[0]
	assert.Equal(t, "https://img/1.jpg", raw.ImageURLs)
	assert.Equal(t, "front", raw.FileName)
	assert.Equal(t, "Acme", raw.RetailerTitle)
	assert.Equal(t, "https://acme/oats", raw.ProductURL)

	updated := result.Update.Entities[0]
	assert.Equal(t, uint(7), updated.ID)
	assert.Equal(t, uint(7), result.Update.Raw[0].ID)
	assert.Nil(t, updated.PackSizeID)
}

func TestClassify_MatchesPackSizeNumerically(t *testing.T) {
	packSizes := []models.PackSize{packSize(9, "Large", "200", "g", "1")}
	rows := []csvparser.Row{
		row(map[string]string{
			"action": "create", "title": "Flour", "manufacturer_part_number": "FL-1",
			"pack_size_name": "Large", "pack_size_weight": "200.0", "pack_size_weight_unit": "g", "pack_size_amount": "1.00",
		}),
	}

	result := Classify(rows, packSizes, fixedNow)

	require.Len(t, result.Create.Entities, 1)
	require.NotNil(t, result.Create.Entities[0].PackSizeID)
	assert.Equal(t, uint(9), *result.Create.Entities[0].PackSizeID)
}

func TestClassify_UnknownPackSizeIsNil(t *testing.T) {
	packSizes := []models.PackSize{packSize(9, "Large", "200", "g", "1")}
	rows := []csvparser.Row{
		row(map[string]string{
			"action": "create", "title": "Flour", "manufacturer_part_number": "FL-1",
			"pack_size_name": "Large", "pack_size_weight": "200", "pack_size_weight_unit": "kg", "pack_size_amount": "1",
		}),
	}

	result := Classify(rows, packSizes, fixedNow)

	require.Len(t, result.Create.Entities, 1)
	assert.Nil(t, result.Create.Entities[0].PackSizeID)
}

func TestClassify_FileNameFallsBackToFileNameColumn(t *testing.T) {
	rows := []csvparser.Row{
		row(map[string]string{"action": "create", "title": "Tea", "file_name": "tea.jpg"}),
	}

	result := Classify(rows, nil, fixedNow)

	require.Len(t, result.Create.Raw, 1)
	assert.Equal(t, "tea.jpg", result.Create.Raw[0].FileName)
}

func TestClassify_MalformedProductID(t *testing.T) {
	rows := []csvparser.Row{
		row(map[string]string{"action": "update", "product_id": "abc", "title": "Tea"}),
	}

	result := Classify(rows, nil, fixedNow)

	require.Len(t, result.Update.Entities, 1)
	assert.Equal(t, uint(0), result.Update.Entities[0].ID)
}

func TestClassify_MatchesPackSizeAtColumnScale(t *testing.T) {
	packSizes := []models.PackSize{packSize(4, "Tin", "0.13", "kg", "1")}
	rows := []csvparser.Row{row(map[string]string{
		"action": "create", "title": "Beans", "manufacturer_part_number": "BEAN-1",
		"pack_size_name": "Tin", "pack_size_weight": "0.125", "pack_size_weight_unit": "kg", "pack_size_amount": "1",
	})}

	result := Classify(rows, packSizes, fixedNow)

	require.Len(t, result.Create.Entities, 1)
	require.NotNil(t, result.Create.Entities[0].PackSizeID)
	assert.Equal(t, uint(4), *result.Create.Entities[0].PackSizeID)
}
