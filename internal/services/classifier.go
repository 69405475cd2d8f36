package services

import (
	"strconv"
	"strings"
	"time"

	"retail-scraper-service/internal/csvparser"
	"retail-scraper-service/internal/models"
)

// RawRecord carries the product fields of a row together with the data needed
// to build its dependent image and retailer rows.
type RawRecord struct {
	ID                     uint
	Title                  string
	Description            *string
	ManufacturerPartNumber string
	PackSizeID             *uint
	CreatedAt              time.Time
	UpdatedAt              time.Time

	ImageURLs     string
	FileName      string
	ProductURL    string
	RetailerTitle string
}

// Batch holds parallel slices: Raw[i] belongs to Entities[i].
type Batch struct {
	Entities []*models.Product
	Raw      []RawRecord
}

func (b *Batch) add(entity *models.Product, raw RawRecord) {
	b.Entities = append(b.Entities, entity)
	b.Raw = append(b.Raw, raw)
}

// Classification is the outcome of splitting import rows by action.
type Classification struct {
	Create  Batch
	Update  Batch
	Dropped int // rows whose action is neither create nor update
}

// Classify builds create and update batches from rows. Each row's pack size is
// matched against packSizes by name, unit and numeric weight and amount; rows
// without a match get a nil pack size. Rows with an unknown action are skipped
// and counted in Dropped.
func Classify(rows []csvparser.Row, packSizes []models.PackSize, now time.Time) *Classification {
	index := make(map[models.PackSizeKey]uint, len(packSizes))
	for _, packSize := range packSizes {
		if _, exists := index[packSize.Key()]; !exists {
			index[packSize.Key()] = packSize.ID
		}
	}

	result := &Classification{}
	for _, row := range rows {
		var packSizeID *uint
		if key, ok := rowPackSizeKey(row); ok {
			if id, found := index[key]; found {
				id := id
				packSizeID = &id
			}
		}

		entity := &models.Product{
			Title:                  field(row, models.ColumnTitle),
			Description:            optionalString(field(row, models.ColumnDescription)),
			ManufacturerPartNumber: field(row, models.ColumnManufacturerPartNumber),
			PackSizeID:             packSizeID,
			CreatedAt:              now,
			UpdatedAt:              now,
		}

		switch strings.ToLower(field(row, models.ColumnAction)) {
		case models.ImportActionCreate:
			result.Create.add(entity, rawRecord(row, entity))
		case models.ImportActionUpdate:
			entity.ID = parseID(field(row, models.ColumnProductID))
			result.Update.add(entity, rawRecord(row, entity))
		default:
			result.Dropped++
		}
	}

	return result
}

func rawRecord(row csvparser.Row, entity *models.Product) RawRecord {
	fileName := field(row, models.ColumnImageName)
	if fileName == "" {
		fileName = field(row, models.ColumnFileName)
	}

	return RawRecord{
		ID:                     entity.ID,
		Title:                  entity.Title,
		Description:            entity.Description,
		ManufacturerPartNumber: entity.ManufacturerPartNumber,
		PackSizeID:             entity.PackSizeID,
		CreatedAt:              entity.CreatedAt,
		UpdatedAt:              entity.UpdatedAt,
		ImageURLs:              field(row, models.ColumnImageURLs),
		FileName:               fileName,
		ProductURL:             field(row, models.ColumnProductURL),
		RetailerTitle:          field(row, models.ColumnRetailerTitle),
	}
}

// parseID returns 0 for empty or malformed product ids
func parseID(value string) uint {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// optionalString returns nil for empty strings, pointer otherwise
func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
