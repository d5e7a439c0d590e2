package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studyhub/core/internal/config"
	"github.com/studyhub/core/internal/database"
	"github.com/studyhub/core/internal/modules/processing/ai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeProvider replays scripted outcomes; the last one repeats. A positive
// delay makes it sleep without watching its context.
type fakeProvider struct {
	id       string
	outcomes []ai.Outcome
	delay    time.Duration
	calls    int32
}

func (p *fakeProvider) ID() string { return p.id }

func (p *fakeProvider) Attempt(_ context.Context, _ ai.Prompt) ai.Outcome {
	n := int(atomic.AddInt32(&p.calls, 1))
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if len(p.outcomes) == 0 {
		return ai.Empty()
	}
	if n > len(p.outcomes) {
		n = len(p.outcomes)
	}
	return p.outcomes[n-1]
}

func (p *fakeProvider) Calls() int { return int(atomic.LoadInt32(&p.calls)) }

func handlesFor(timeout time.Duration, providers ...*fakeProvider) []ai.Handle {
	handles := make([]ai.Handle, 0, len(providers))
	for i, p := range providers {
		handles = append(handles, ai.Handle{Provider: p, Priority: i, Timeout: timeout})
	}
	return handles
}

type fakeResources struct {
	docs map[string]Resource // keyed by owner + "/" + id
}

func newFakeResources() *fakeResources {
	return &fakeResources{docs: map[string]Resource{}}
}

func (f *fakeResources) add(ownerID string, r Resource) {
	f.docs[ownerID+"/"+r.ID] = r
}

func (f *fakeResources) Lookup(_ context.Context, resourceID, ownerID string) (*Resource, error) {
	r, ok := f.docs[ownerID+"/"+resourceID]
	if !ok {
		return nil, &OwnershipError{ResourceID: resourceID}
	}
	return &r, nil
}

// fakeCache is an in-memory Cache. A non-nil err fails every call.
type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	gets   int
	sets   int
	dels   int
}

func newFakeCache() *fakeCache { return &fakeCache{values: map[string]string{}} }

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return "", c.err
	}
	return c.values[key], nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	if c.err != nil {
		return c.err
	}
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.err != nil {
		return c.err
	}
	c.values[key] = fmt.Sprint(value)
	return nil
}

// testClock hands out fixed instants and advances only when told to.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

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

func newTestStore(t *testing.T) (*GormStore, *testClock) {
	t.Helper()
	clock := newTestClock()
	store := NewGormStore(newTestDB(t))
	store.now = clock.Now
	return store, clock
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func flashcardsJSON(t *testing.T, n int) string {
	t.Helper()
	cards := make([]Flashcard, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, Flashcard{
			Front: fmt.Sprintf("Question %d", i+1),
			Back:  fmt.Sprintf("Answer %d", i+1),
		})
	}
	raw, err := json.Marshal(cards)
	if err != nil {
		t.Fatalf("marshal cards: %v", err)
	}
	return string(raw)
}

func decodeFlashcards(t *testing.T, payload []byte) []Flashcard {
	t.Helper()
	var cards []Flashcard
	if err := json.Unmarshal(payload, &cards); err != nil {
		t.Fatalf("decode flashcards: %v", err)
	}
	return cards
}

func decodeStudyPlan(t *testing.T, payload []byte) StudyPlan {
	t.Helper()
	var plan StudyPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		t.Fatalf("decode study plan: %v", err)
	}
	return plan
}

func mustValidate(t *testing.T, kind Kind, payload []byte) {
	t.Helper()
	if err := validatePayload(kind, payload); err != nil {
		t.Fatalf("%s payload failed schema validation: %v\n%s", kind, err, payload)
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
