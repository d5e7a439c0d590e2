package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentModel is an uploaded study document. Rows are written by the
// document service; artifact generation only reads them.
type DocumentModel struct {
	ID        string                      `json:"id"        gorm:"type:char(36);primaryKey"`
	OwnerID   string                      `json:"ownerId"   gorm:"type:char(36);index;not null"`
	Title     string                      `json:"title"     gorm:"not null"`
	Text      string                      `json:"text"      gorm:"type:text"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
	DeletedAt gorm.DeletedAt              `json:"-"         gorm:"index"`
}

func (DocumentModel) TableName() string { return "documents" }

func (d *DocumentModel) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
