package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LineItem is one entry inside a batch submission. Line items have no
// lifecycle of their own: the owning Item stores the full ordered list as
// a JSON column and replaces it wholesale on update.
type LineItem struct {
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	Unit       string  `json:"unit"`
	ExpiryDate *string `json:"expiry_date,omitempty"` // YYYY-MM-DD
}

// Total returns the line total
func (l LineItem) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Item is a batch goods submission. PriceCeiling is copied by value from
// the sub-category at submission time; TotalItems and TotalPrice are
// snapshotted from the line-item list on create and full update, never
// recomputed on read.
type Item struct {
	ID             uint                          `gorm:"primaryKey" json:"id"`
	UserID         uint                          `gorm:"not null;index" json:"user_id"`
	CategoryID     uint                          `gorm:"not null;index" json:"category_id"`
	SubCategoryID  uint                          `gorm:"not null;index" json:"sub_category_id"`
	PriceCeiling   float64                       `json:"price_ceiling"`
	DocumentNumber string                        `gorm:"size:200;uniqueIndex;not null" json:"document_number"`
	Source         string                        `gorm:"size:200;not null" json:"source"`
	AttachmentPath *string                       `json:"attachment_path,omitempty"`
	LineItems      datatypes.JSONSlice[LineItem] `gorm:"not null" json:"line_items"`
	TotalItems     int                           `gorm:"not null" json:"total_items"`
	TotalPrice     float64                       `gorm:"not null" json:"total_price"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Category    *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SubCategory *SubCategory `gorm:"foreignKey:SubCategoryID" json:"sub_category,omitempty"`
}

// TableName specifies the table name for Item model
func (Item) TableName() string {
	return "items"
}
