package artifact

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/studyhub/core/internal/models"
	"github.com/studyhub/core/internal/pkg/pagination"
)

func TestGormStoreUpsertReplacesAndKeepsGeneratedAt(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)
	key := Key{Kind: KindFlashcards, ResourceID: "doc-1", OwnerID: "owner-1"}

	got, err := store.Get(ctx, key)
	if err != nil || got != nil {
		t.Fatalf("Get on empty store = %v, %v; want nil, nil", got, err)
	}

	first, err := store.Upsert(ctx, key, Sanitized{Payload: []byte(`[{"front":"a","back":"b","hint":"","tags":[]}]`)}, "openai")
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if !first.GeneratedAt.Equal(clock.Now()) || !first.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("timestamps = %v/%v, want %v", first.GeneratedAt, first.UpdatedAt, clock.Now())
	}

	clock.Advance(time.Hour)
	second, err := store.Upsert(ctx, key, Sanitized{Payload: []byte(`[{"front":"c","back":"d","hint":"","tags":[]}]`), ShortBy: 4}, SourceFallback)
	if err != nil {
		t.Fatalf("second Upsert error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a new row: %s != %s", second.ID, first.ID)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Fatalf("generatedAt changed: %v -> %v", first.GeneratedAt, second.GeneratedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("updatedAt did not advance: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if second.Source != SourceFallback || second.ShortBy != 4 || second.Truncated {
		t.Fatalf("row not replaced: %+v", second)
	}
	if !bytes.Contains(second.Payload, []byte(`"front":"c"`)) || bytes.Contains(second.Payload, []byte(`"front":"a"`)) {
		t.Fatalf("payload merged instead of replaced: %s", second.Payload)
	}

	var rows int64
	if err := store.db.Model(&models.StudyArtifactModel{}).Count(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
}

func TestGormStoreUpdatedAtNeverGoesBackwards(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t)
	key := Key{Kind: KindStudyPlan, ResourceID: "doc-1", OwnerID: "owner-1"}
	payload := Sanitized{Payload: []byte(`{"title":"t","summary":"","weeks":[]}`)}

	first, err := store.Upsert(ctx, key, payload, "p")
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	clock.Advance(-time.Minute)
	second, err := store.Upsert(ctx, key, payload, "p")
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Fatalf("updatedAt moved backwards: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestGormStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	payload := Sanitized{Payload: []byte(`[]`)}

	keys := []Key{
		{Kind: KindFlashcards, ResourceID: "doc-1", OwnerID: "owner-1"},
		{Kind: KindMindMap, ResourceID: "doc-1", OwnerID: "owner-1"},
		{Kind: KindFlashcards, ResourceID: "doc-2", OwnerID: "owner-1"},
		{Kind: KindFlashcards, ResourceID: "doc-1", OwnerID: "owner-2"},
	}
	for _, k := range keys {
		if _, err := store.Upsert(ctx, k, payload, k.String()); err != nil {
			t.Fatalf("Upsert %s: %v", k, err)
		}
	}
	for _, k := range keys {
		a, err := store.Get(ctx, k)
		if err != nil || a == nil {
			t.Fatalf("Get %s = %v, %v", k, a, err)
		}
		if a.Source != k.String() {
			t.Fatalf("Get %s returned row of %s", k, a.Source)
		}
	}

	items, pag, err := store.List(ctx, "owner-1", KindFlashcards, pagination.Query{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 2 || pag.Total != 2 {
		t.Fatalf("List = %d items, total %d; want 2", len(items), pag.Total)
	}
	all, _, err := store.List(ctx, "owner-1", "", pagination.Query{Page: 1, Size: 10})
	if err != nil || len(all) != 3 {
		t.Fatalf("List without kind = %d, %v; want 3", len(all), err)
	}
}

func TestCachedStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	inner, _ := newTestStore(t)
	cache := newFakeCache()
	store := NewCachedStore(inner, cache, time.Minute, nil)
	key := Key{Kind: KindFlashcards, ResourceID: "doc-1", OwnerID: "owner-1"}

	saved, err := store.Upsert(ctx, key, Sanitized{Payload: []byte(`[{"front":"a","back":"b","hint":"","tags":[]}]`)}, "openai")
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if _, ok := cache.values[cacheKey(key)]; ok {
		t.Fatalf("upsert should evict, not write the cache")
	}
	if _, err := store.Get(ctx, key); err != nil {
		t.Fatalf("Get error: %v", err)
	}

	// Remove the row so only the cache can answer.
	if err := inner.db.Where("1 = 1").Delete(&models.StudyArtifactModel{}).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if got.ID != saved.ID || !bytes.Equal(got.Payload, saved.Payload) || !got.UpdatedAt.Equal(saved.UpdatedAt) {
		t.Fatalf("cached artifact differs: %+v vs %+v", got, saved)
	}
}

func TestCachedStoreUpsertEvictsStaleEntry(t *testing.T) {
	ctx := context.Background()
	inner, clock := newTestStore(t)
	cache := newFakeCache()
	store := NewCachedStore(inner, cache, time.Hour, nil)
	key := Key{Kind: KindFlashcards, ResourceID: "doc-1", OwnerID: "owner-1"}

	if _, err := store.Upsert(ctx, key, Sanitized{Payload: []byte(`[{"front":"old","back":"b","hint":"","tags":[]}]`)}, "p"); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if _, err := store.Get(ctx, key); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := store.Upsert(ctx, key, Sanitized{Payload: []byte(`[{"front":"new","back":"b","hint":"","tags":[]}]`)}, "p"); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if !bytes.Contains(got.Payload, []byte(`"front":"new"`)) {
		t.Fatalf("cache served the earlier write: %s", got.Payload)
	}
	if cache.dels != 2 {
		t.Fatalf("evictions = %d, want 2", cache.dels)
	}
}

func TestCachedStorePopulatesOnMiss(t *testing.T) {
	ctx := context.Background()
	inner, _ := newTestStore(t)
	key := Key{Kind: KindMindMap, ResourceID: "doc-1", OwnerID: "owner-1"}
	if _, err := inner.Upsert(ctx, key, Sanitized{Payload: []byte(`{"title":"","root":"r","nodes":[]}`)}, "p"); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	cache := newFakeCache()
	store := NewCachedStore(inner, cache, time.Minute, nil)
	if a, err := store.Get(ctx, key); err != nil || a == nil {
		t.Fatalf("Get = %v, %v", a, err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}
	missing := Key{Kind: KindMindMap, ResourceID: "doc-2", OwnerID: "owner-1"}
	if a, err := store.Get(ctx, missing); err != nil || a != nil {
		t.Fatalf("Get missing = %v, %v; want nil, nil", a, err)
	}
}

func TestCachedStoreIgnoresCacheFailures(t *testing.T) {
	ctx := context.Background()
	inner, _ := newTestStore(t)
	cache := newFakeCache()
	cache.err = errors.New("connection refused")
	store := NewCachedStore(inner, cache, time.Minute, nil)
	key := Key{Kind: KindFlashcards, ResourceID: "doc-1", OwnerID: "owner-1"}

	if _, err := store.Upsert(ctx, key, Sanitized{Payload: []byte(`[]`)}, "p"); err != nil {
		t.Fatalf("Upsert with broken cache: %v", err)
	}
	a, err := store.Get(ctx, key)
	if err != nil || a == nil {
		t.Fatalf("Get with broken cache = %v, %v", a, err)
	}
}
