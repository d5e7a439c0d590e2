package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StudyArtifactModel is the current generated artifact for one
// (kind, resource, owner) key. Timestamps are set by the store.
type StudyArtifactModel struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Kind        string         `json:"kind"        gorm:"size:32;not null;uniqueIndex:idx_study_artifact_key,priority:1"`
	ResourceID  string         `json:"resourceId"  gorm:"type:char(36);not null;uniqueIndex:idx_study_artifact_key,priority:2"`
	OwnerID     string         `json:"ownerId"     gorm:"type:char(36);not null;uniqueIndex:idx_study_artifact_key,priority:3;index"`
	Payload     datatypes.JSON `json:"payload"     gorm:"not null"`
	Source      string         `json:"source"      gorm:"size:128;not null"`
	Truncated   bool           `json:"truncated"   gorm:"not null;default:false"`
	ShortBy     int            `json:"shortBy"     gorm:"not null;default:0"`
	GeneratedAt time.Time      `json:"generatedAt" gorm:"not null"`
	UpdatedAt   time.Time      `json:"updatedAt"   gorm:"not null;autoUpdateTime:false"`
}

func (StudyArtifactModel) TableName() string { return "study_artifacts" }

func (m *StudyArtifactModel) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
