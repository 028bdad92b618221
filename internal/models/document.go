package models

import (
	"time"

	"gorm.io/gorm"
)

// Document represents a tracked record with an optional file attachment.
// The backing file is removed from storage when the document is deleted
// or its attachment is replaced on update.
type Document struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	UserID         uint    `gorm:"not null;index" json:"user_id"`
	DocumentNumber string  `gorm:"size:255;not null" json:"document_number"`
	Source         string  `gorm:"size:255;not null" json:"source"`
	AttachmentPath *string `json:"attachment_path,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "documents"
}
