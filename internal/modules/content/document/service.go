package document

import (
	"context"
	"errors"

	"github.com/studyhub/core/internal/models"
	"github.com/studyhub/core/internal/modules/processing/artifact"
	"github.com/studyhub/core/internal/modules/processing/markdown"
	"gorm.io/gorm"
)

// Service resolves study documents for artifact generation. Documents are
// written elsewhere; this side only reads them.
type Service struct {
	db       *gorm.DB
	maxChars int
}

func NewService(db *gorm.DB, maxChars int) *Service {
	return &Service{db: db, maxChars: maxChars}
}

// Lookup returns the document as generation source text. A document that
// does not exist and one owned by someone else both give
// *artifact.OwnershipError.
func (s *Service) Lookup(ctx context.Context, resourceID, ownerID string) (*artifact.Resource, error) {
	var doc models.DocumentModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", resourceID, ownerID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &artifact.OwnershipError{ResourceID: resourceID}
	}
	if err != nil {
		return nil, err
	}
	return &artifact.Resource{
		ID:    doc.ID,
		Title: doc.Title,
		Text:  markdown.Truncate(markdown.PlainText(doc.Text), s.maxChars),
	}, nil
}
