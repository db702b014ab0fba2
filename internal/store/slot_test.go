package store

import (
	"context"
	"testing"

	"github.com/avoskov/retail_pos/internal/events"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func defaultDoc() doc { return doc{Name: "default"} }

func TestSlot_HydratesFromBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Save(ctx, "doc", []byte(`{"name":"stored","count":3}`)))

	slot := NewSlot(ctx, kv, events.NewBus(), "doc", defaultDoc)
	got := slot.Get()
	assert.Equal(t, "stored", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestSlot_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(kv *MemoryKV)
	}{
		{name: "missing key", setup: func(kv *MemoryKV) {}},
		{name: "unparsable value", setup: func(kv *MemoryKV) {
			require.NoError(t, kv.Save(ctx, "doc", []byte("not json")))
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kv := NewMemoryKV()
			tt.setup(kv)
			slot := NewSlot(ctx, kv, events.NewBus(), "doc", defaultDoc)
			assert.Equal(t, defaultDoc(), slot.Get())
		})
	}
}

func TestSlot_NilBackendUsesDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slot := NewSlot(ctx, nil, nil, "doc", defaultDoc)
	assert.Equal(t, defaultDoc(), slot.Get())

	require.NoError(t, slot.Set(ctx, doc{Name: "in memory only"}))
	assert.Equal(t, "in memory only", slot.Get().Name)
}

func TestSlot_SetWritesThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemoryKV()
	slot := NewSlot(ctx, kv, events.NewBus(), "doc", defaultDoc)

	require.NoError(t, slot.Set(ctx, doc{Name: "written", Count: 7}))

	raw, ok, err := kv.Load(ctx, "doc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"written","count":7}`, string(raw))

	// A second slot over the same backend hydrates the written value.
	other := NewSlot(ctx, kv, events.NewBus(), "doc", defaultDoc)
	assert.Equal(t, "written", other.Get().Name)
}

func TestSlot_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slot := NewSlot(ctx, NewMemoryKV(), events.NewBus(), "doc", defaultDoc)

	require.NoError(t, slot.Update(ctx, func(d doc) doc {
		d.Count++
		return d
	}))
	assert.Equal(t, 1, slot.Get().Count)
}

func TestSlot_ExternalChangeWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := NewMemoryKV()
	bus := events.NewBus()
	slot := NewSlot(ctx, kv, bus, "doc", defaultDoc)
	require.NoError(t, slot.Set(ctx, doc{Name: "mine"}))

	bus.Publish(ExternalTopic("doc"), []byte(`{"name":"theirs","count":9}`))
	assert.Equal(t, "theirs", slot.Get().Name)

	// Cleared key reverts to the default.
	bus.Publish(ExternalTopic("doc"), nil)
	assert.Equal(t, defaultDoc(), slot.Get())

	// Garbage also reverts to the default rather than erroring.
	bus.Publish(ExternalTopic("doc"), []byte("{{{"))
	assert.Equal(t, defaultDoc(), slot.Get())
}

func openTestGorm(t *testing.T) *GormKV {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&slotRow{}, &blobRow{}))
	return &GormKV{DB: db}
}

func TestGormKV_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := openTestGorm(t)

	_, ok, err := kv.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Save(ctx, "doc", []byte(`{"a":1}`)))
	require.NoError(t, kv.Save(ctx, "doc", []byte(`{"a":2}`)))

	raw, ok, err := kv.Load(ctx, "doc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(raw))

	require.NoError(t, kv.Delete(ctx, "doc"))
	_, ok, err = kv.Load(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormBlobs_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := openTestGorm(t)
	blobs := &GormBlobs{DB: kv.DB}

	require.NoError(t, blobs.Put(ctx, "p1", Blob{Data: []byte{1, 2, 3}, ContentType: "image/png"}))

	got, ok, err := blobs.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.Equal(t, "image/png", got.ContentType)

	require.NoError(t, blobs.Delete(ctx, "p1"))
	_, ok, err = blobs.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}
