package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/studyhub/core/internal/models"
	"github.com/studyhub/core/internal/pkg/pagination"
	"github.com/studyhub/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Key identifies the single current artifact of a kind for one resource
// and owner.
type Key struct {
	Kind       Kind
	ResourceID string
	OwnerID    string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.ResourceID, k.OwnerID)
}

// Artifact is a persisted, schema-valid generation result.
type Artifact struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	ResourceID  string          `json:"resourceId"`
	OwnerID     string          `json:"ownerId"`
	Payload     json.RawMessage `json:"payload"`
	Source      string          `json:"source"`
	Truncated   bool            `json:"truncated"`
	ShortBy     int             `json:"shortBy"`
	GeneratedAt time.Time       `json:"generatedAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (a *Artifact) Key() Key {
	return Key{Kind: a.Kind, ResourceID: a.ResourceID, OwnerID: a.OwnerID}
}

// Store persists the current artifact per key.
type Store interface {
	// Get returns nil, nil when nothing was generated for key yet.
	Get(ctx context.Context, key Key) (*Artifact, error)
	// Upsert replaces the payload stored under key, or creates it.
	Upsert(ctx context.Context, key Key, result Sanitized, source string) (*Artifact, error)
	List(ctx context.Context, ownerID string, kind Kind, q pagination.Query) ([]Artifact, response.Pagination, error)
}

// GormStore keeps artifacts in the study_artifacts table.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Get(ctx context.Context, key Key) (*Artifact, error) {
	var row models.StudyArtifactModel
	err := s.db.WithContext(ctx).
		Where("kind = ? AND resource_id = ? AND owner_id = ?", string(key.Kind), key.ResourceID, key.OwnerID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromModel(&row), nil
}

func (s *GormStore) Upsert(ctx context.Context, key Key, result Sanitized, source string) (*Artifact, error) {
	now := s.now().UTC()
	existing, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil && now.Before(existing.UpdatedAt) {
		now = existing.UpdatedAt
	}

	row := models.StudyArtifactModel{
		Kind:        string(key.Kind),
		ResourceID:  key.ResourceID,
		OwnerID:     key.OwnerID,
		Payload:     datatypes.JSON(result.Payload),
		Source:      source,
		Truncated:   result.Truncated,
		ShortBy:     result.ShortBy,
		GeneratedAt: now,
		UpdatedAt:   now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kind"}, {Name: "resource_id"}, {Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"payload", "source", "truncated", "short_by", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	stored, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("artifact %s missing after upsert", key)
	}
	return stored, nil
}

func (s *GormStore) List(ctx context.Context, ownerID string, kind Kind, q pagination.Query) ([]Artifact, response.Pagination, error) {
	query := s.db.WithContext(ctx).Model(&models.StudyArtifactModel{}).Where("owner_id = ?", ownerID)
	if kind != "" {
		query = query.Where("kind = ?", string(kind))
	}
	query = query.Order("updated_at DESC")

	var rows []models.StudyArtifactModel
	pag, err := pagination.Paginate(query, q, &rows)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	items := make([]Artifact, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return items, pag, nil
}

func fromModel(m *models.StudyArtifactModel) *Artifact {
	return &Artifact{
		ID:          m.ID,
		Kind:        Kind(m.Kind),
		ResourceID:  m.ResourceID,
		OwnerID:     m.OwnerID,
		Payload:     json.RawMessage(m.Payload),
		Source:      m.Source,
		Truncated:   m.Truncated,
		ShortBy:     m.ShortBy,
		GeneratedAt: m.GeneratedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Cache is the key/value surface CachedStore needs. Get returns "" on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const cacheKeyPrefix = "studyhub:artifact:"

// CachedStore puts a read-through cache in front of another Store. Upserts
// evict the key instead of writing it, so the next read loads whichever
// write the database kept last. Cache failures are logged and otherwise
// ignored; the wrapped store stays the source of truth.
type CachedStore struct {
	inner Store
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedStore(inner Store, cache Cache, ttl time.Duration, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{inner: inner, cache: cache, ttl: ttl, log: log}
}

func cacheKey(key Key) string {
	return cacheKeyPrefix + key.String()
}

func (s *CachedStore) Get(ctx context.Context, key Key) (*Artifact, error) {
	if raw, err := s.cache.Get(ctx, cacheKey(key)); err != nil {
		s.log.Warn("artifact cache read failed", zap.String("key", key.String()), zap.Error(err))
	} else if raw != "" {
		var a Artifact
		if err := json.Unmarshal([]byte(raw), &a); err == nil {
			return &a, nil
		}
		s.log.Warn("artifact cache entry unreadable", zap.String("key", key.String()))
	}

	a, err := s.inner.Get(ctx, key)
	if err != nil || a == nil {
		return a, err
	}
	s.put(ctx, a)
	return a, nil
}

func (s *CachedStore) Upsert(ctx context.Context, key Key, result Sanitized, source string) (*Artifact, error) {
	a, err := s.inner.Upsert(ctx, key, result, source)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Del(ctx, cacheKey(key)); err != nil {
		s.log.Warn("artifact cache evict failed", zap.String("key", key.String()), zap.Error(err))
	}
	return a, nil
}

func (s *CachedStore) List(ctx context.Context, ownerID string, kind Kind, q pagination.Query) ([]Artifact, response.Pagination, error) {
	return s.inner.List(ctx, ownerID, kind, q)
}

func (s *CachedStore) put(ctx context.Context, a *Artifact) {
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(a.Key()), string(data), s.ttl); err != nil {
		s.log.Warn("artifact cache write failed", zap.String("key", a.Key().String()), zap.Error(err))
	}
}
