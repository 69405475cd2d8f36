package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a scraped catalog entry. (ManufacturerPartNumber, PackSizeID) is unique.
type Product struct {
	ID                     uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title                  string    `json:"title" gorm:"not null"`
	Description            *string   `json:"description,omitempty" gorm:"type:text"`
	ManufacturerPartNumber string    `json:"manufacturer_part_number" gorm:"size:191;not null;uniqueIndex:products_mpn_pack_size_unique,priority:1"`
	PackSizeID             *uint     `json:"pack_size_id,omitempty" gorm:"uniqueIndex:products_mpn_pack_size_unique,priority:2"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	PackSize  *PackSize         `json:"pack_size,omitempty" gorm:"foreignKey:PackSizeID"`
	Images    []ProductImage    `json:"images,omitempty" gorm:"foreignKey:ProductID"`
	Retailers []ProductRetailer `json:"retailers,omitempty" gorm:"foreignKey:ProductID"`
}

// PackSizeScale is the number of fractional digits kept by the weight and
// amount columns.
const PackSizeScale int32 = 2

// PackSize identity for imports is (Name, Weight, WeightUnit, Amount), not ID.
type PackSize struct {
	ID         uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string          `json:"name" gorm:"size:191;not null"`
	Weight     decimal.Decimal `json:"weight" gorm:"type:decimal(10,2);not null"`
	WeightUnit string          `json:"weight_unit" gorm:"size:32;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Key returns the normalised identity of the pack size.
func (p PackSize) Key() PackSizeKey {
	return PackSizeKey{
		Name:       p.Name,
		Weight:     CanonicalDecimal(p.Weight),
		WeightUnit: p.WeightUnit,
		Amount:     CanonicalDecimal(p.Amount),
	}
}

// Describe renders the pack size as "<name>, <weight><unit>, <amount>" with
// the numbers shown as stored.
func (p PackSize) Describe() string {
	return p.Name + ", " + p.Weight.StringFixed(PackSizeScale) + p.WeightUnit + ", " + p.Amount.StringFixed(PackSizeScale)
}

// CanonicalDecimal rounds d to the column scale and drops trailing zeros.
func CanonicalDecimal(d decimal.Decimal) string {
	return d.Round(PackSizeScale).String()
}

// PackSizeKey is the composite identity of a pack size. Weight and Amount
// hold decimal strings rounded to PackSizeScale with trailing zeros removed,
// so "200", "200.0" and "200.001" produce the same key.
type PackSizeKey struct {
	Name       string
	Weight     string
	WeightUnit string
	Amount     string
}

// ProductKey is the natural key of a product.
type ProductKey struct {
	ManufacturerPartNumber string
	PackSizeID             uint
}

// Retailer is a shop whose catalog is scraped. Title is what import rows reference.
type Retailer struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"size:191;not null;uniqueIndex"`
	BaseURL   *string   `json:"base_url,omitempty"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductImage rows are replaced wholesale whenever their product is re-imported.
type ProductImage struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	FileURL   string    `json:"file_url" gorm:"type:text;not null"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductRetailer links a product to a retailer listing.
type ProductRetailer struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID  uint      `json:"product_id" gorm:"not null;index"`
	RetailerID uint      `json:"retailer_id" gorm:"not null;index"`
	ProductURL *string   `json:"product_url,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Retailer *Retailer `json:"retailer,omitempty" gorm:"foreignKey:RetailerID"`
}

// CreateRetailerRequest is the payload for POST /retailers
type CreateRetailerRequest struct {
	Title   string  `json:"title" binding:"required"`
	BaseURL *string `json:"base_url"`
	LogoURL *string `json:"logo_url"`
}

func (Product) TableName() string {
	return "products"
}

func (PackSize) TableName() string {
	return "pack_sizes"
}

func (Retailer) TableName() string {
	return "retailers"
}

func (ProductImage) TableName() string {
	return "product_images"
}

func (ProductRetailer) TableName() string {
	return "product_retailers"
}
