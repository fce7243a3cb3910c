package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/apperr"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store, gw Gateway) *Service {
	s := NewService(store, gw, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func seed(t *testing.T, s *Service, name, filename string) Meme {
	t.Helper()
	m, err := s.Create(context.Background(), NewMeme{Name: name, Text: name + " text", Filename: filename, Image: []byte("img")})
	require.NoError(t, err)
	return m
}

func TestCreate(t *testing.T) {
	store := newMemoryStore()
	gw := newFakeGateway()
	s := newTestService(store, gw)

	m, err := s.Create(context.Background(), NewMeme{Name: "doge", Text: "wow", Filename: "doge.png", Image: []byte("img")})
	require.NoError(t, err)

	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, "doge.png", m.Filename)
	assert.Equal(t, fakeURL("doge.png"), m.ImageURL)
	assert.Equal(t, fixedNow, m.DateAdded)
	assert.Equal(t, fixedNow, m.DateUpdated)
	assert.Equal(t, []byte("img"), gw.objects["doge.png"])

	stored, err := store.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, stored)
}

func TestCreate_GatewayFailureWritesNoRow(t *testing.T) {
	store := newMemoryStore()
	gw := newFakeGateway()
	gw.uploadErr = &GatewayError{StatusCode: 500, Body: `{"detail":"Error while working with object storage"}`}
	s := newTestService(store, gw)

	_, err := s.Create(context.Background(), NewMeme{Name: "doge", Text: "wow", Filename: "doge.png", Image: []byte("img")})
	require.Error(t, err)

	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Contains(t, apperr.Message(err), "Meme creation error")
	assert.Empty(t, store.rows)
}

func TestCreate_InsertFailure(t *testing.T) {
	store := newMemoryStore()
	store.createErr = apperr.Persistence(errors.New("connection reset"), "insert meme")
	s := newTestService(store, newFakeGateway())

	_, err := s.Create(context.Background(), NewMeme{Name: "doge", Text: "wow", Filename: "doge.png", Image: []byte("img")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPersistence))
}

func TestList(t *testing.T) {
	s := newTestService(newMemoryStore(), newFakeGateway())
	for _, name := range []string{"a", "b", "c"} {
		seed(t, s, name, name+".png")
	}

	memes, err := s.List(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, memes, 2)
	assert.Equal(t, "b", memes[0].Name)
	assert.Equal(t, "c", memes[1].Name)

	memes, err = s.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, memes)
	assert.Empty(t, memes)

	memes, err = s.List(context.Background(), 10, 5)
	require.NoError(t, err)
	assert.Empty(t, memes)
}

func TestList_InvalidBounds(t *testing.T) {
	s := newTestService(newMemoryStore(), newFakeGateway())

	tests := []struct {
		name          string
		offset, limit int
	}{
		{"negative offset", -1, 5},
		{"negative limit", 0, -1},
		{"limit over max", 0, MaxLimit + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.List(context.Background(), tt.offset, tt.limit)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestService(newMemoryStore(), newFakeGateway())

	_, err := s.Get(context.Background(), 42)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Meme not found", apperr.Message(err))
}

func TestUpdate_MetadataOnly(t *testing.T) {
	store := newMemoryStore()
	gw := newFakeGateway()
	s := newTestService(store, gw)
	m := seed(t, s, "doge", "doge.png")

	updated, err := s.Update(context.Background(), m.ID, MemeChanges{Text: strPtr("much update")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "much update", updated.Text)
	assert.Equal(t, "doge", updated.Name)
	assert.Equal(t, m.ImageURL, updated.ImageURL)
	assert.Equal(t, 1, gw.callCount(), "only the initial upload reaches the gateway")
	assert.Equal(t, updated, store.rows[m.ID])
}

func TestUpdate_ReplacesImage(t *testing.T) {
	store := newMemoryStore()
	gw := newFakeGateway()
	s := newTestService(store, gw)
	m := seed(t, s, "doge", "doge.png")

	updated, err := s.Update(context.Background(), m.ID, MemeChanges{Name: strPtr("cat")},
		&ImageUpload{Filename: "cat.png", Data: []byte("new")})
	require.NoError(t, err)

	assert.Equal(t, "cat", updated.Name)
	assert.Equal(t, "cat.png", updated.Filename)
	assert.Equal(t, fakeURL("cat.png"), updated.ImageURL)
	assert.Equal(t, gatewayCall{method: "replace", filename: "cat.png", oldFilename: "doge.png"}, gw.calls[1])
	assert.NotContains(t, gw.objects, "doge.png")
	assert.Equal(t, updated, store.rows[m.ID])
}

func TestUpdate_ReplaceFailureLeavesRowUnchanged(t *testing.T) {
	store := newMemoryStore()
	gw := newFakeGateway()
	s := newTestService(store, gw)
	m := seed(t, s, "doge", "doge.png")
	gw.replaceErr = &GatewayError{StatusCode: 500, Body: `{"detail":"Failed to delete the old object doge.png"}`}

	_, err := s.Update(context.Background(), m.ID, MemeChanges{Text: strPtr("new text")},
		&ImageUpload{Filename: "cat.png", Data: []byte("new")})
	require.Error(t, err)

	assert.True(t, apperr.Is(err, apperr.KindPartialFailure))
	assert.Equal(t, m, store.rows[m.ID])
	assert.Zero(t, store.saves)
}

func TestUpdate_NotFound(t *testing.T) {
	gw := newFakeGateway()
	s := newTestService(newMemoryStore(), gw)

	_, err := s.Update(context.Background(), 9, MemeChanges{Text: strPtr("x")}, &ImageUpload{Filename: "x.png", Data: []byte("x")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Zero(t, gw.callCount())
}

func TestUpdate_SaveFailure(t *testing.T) {
	store := newMemoryStore()
	s := newTestService(store, newFakeGateway())
	m := seed(t, s, "doge", "doge.png")
	store.saveErr = apperr.Persistence(errors.New("deadlock"), "update meme")

	_, err := s.Update(context.Background(), m.ID, MemeChanges{Text: strPtr("x")}, nil)
	assert.True(t, apperr.Is(err, apperr.KindPersistence))
	assert.Equal(t, m, store.rows[m.ID])
}

func TestDelete(t *testing.T) {
	store := newMemoryStore()
	gw := newFakeGateway()
	s := newTestService(store, gw)
	m := seed(t, s, "doge", "doge.png")

	deleted, err := s.Delete(context.Background(), m.ID)
	require.NoError(t, err)

	assert.Equal(t, m, deleted)
	assert.Empty(t, store.rows)
	assert.Empty(t, gw.objects)
}

func TestDelete_NotFoundSkipsGateway(t *testing.T) {
	gw := newFakeGateway()
	s := newTestService(newMemoryStore(), gw)

	_, err := s.Delete(context.Background(), 3)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Zero(t, gw.callCount())
}

func TestDelete_GatewayFailureKeepsRow(t *testing.T) {
	store := newMemoryStore()
	gw := newFakeGateway()
	s := newTestService(store, gw)
	m := seed(t, s, "doge", "doge.png")
	gw.deleteErr = errors.New("connection refused")

	_, err := s.Delete(context.Background(), m.ID)
	require.Error(t, err)

	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Contains(t, apperr.Message(err), "Meme deletion error")
	assert.Contains(t, store.rows, m.ID)
}
