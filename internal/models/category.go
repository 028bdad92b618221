package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is the top level of the goods classification hierarchy
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"unique;not null" json:"code"`
	Name string `gorm:"not null" json:"name"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Category model
func (Category) TableName() string {
	return "categories"
}

// SubCategory belongs to a Category and carries the advisory price ceiling
// copied onto items at submission time
type SubCategory struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	CategoryID   uint     `gorm:"not null;index" json:"category_id"`
	Name         string   `gorm:"size:100;not null" json:"name"`
	PriceCeiling *float64 `json:"price_ceiling,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName specifies the table name for SubCategory model
func (SubCategory) TableName() string {
	return "sub_categories"
}
