package document

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studyhub/core/internal/config"
	"github.com/studyhub/core/internal/database"
	"github.com/studyhub/core/internal/models"
	"github.com/studyhub/core/internal/modules/processing/artifact"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, "sqlite::memory:", logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seed(t *testing.T, db *gorm.DB, doc *models.DocumentModel) {
	t.Helper()
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func TestLookupReturnsPlainText(t *testing.T) {
	db := newTestDB(t)
	doc := &models.DocumentModel{
		OwnerID: "owner-1",
		Title:   "Photosynthesis",
		Text:    "# Light reactions\n\nChlorophyll absorbs **light**.",
		Tags:    datatypes.JSONSlice[string]{"biology"},
	}
	seed(t, db, doc)

	res, err := NewService(db, 0).Lookup(context.Background(), doc.ID, "owner-1")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if res.ID != doc.ID || res.Title != "Photosynthesis" {
		t.Fatalf("resource = %+v", res)
	}
	if res.Text != "Light reactions\nChlorophyll absorbs light." {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestLookupTruncatesText(t *testing.T) {
	db := newTestDB(t)
	doc := &models.DocumentModel{OwnerID: "owner-1", Title: "Long", Text: strings.Repeat("a", 500)}
	seed(t, db, doc)

	res, err := NewService(db, 100).Lookup(context.Background(), doc.ID, "owner-1")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if len(res.Text) != 100 {
		t.Fatalf("text length = %d, want 100", len(res.Text))
	}
}

func TestLookupHidesForeignAndMissingDocuments(t *testing.T) {
	db := newTestDB(t)
	doc := &models.DocumentModel{OwnerID: "owner-1", Title: "Mine"}
	seed(t, db, doc)
	svc := NewService(db, 0)

	for _, tc := range []struct{ id, owner string }{
		{doc.ID, "owner-2"},
		{"missing", "owner-1"},
	} {
		_, err := svc.Lookup(context.Background(), tc.id, tc.owner)
		var oerr *artifact.OwnershipError
		if !errors.As(err, &oerr) {
			t.Fatalf("Lookup(%s, %s) err = %v, want OwnershipError", tc.id, tc.owner, err)
		}
	}
}
