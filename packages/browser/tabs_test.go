package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTabStore(t *testing.T) *TabStore {
	t.Helper()
	client, _ := newDB(t)
	s := NewTabStore(client)
	base := time.Unix(1700000000, 0)
	var n int
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return s
}

func TestTabStore_OpenMakesTabActive(t *testing.T) {
	s := newTabStore(t)
	ctx := context.Background()

	first, err := s.Open(ctx, "https://a.example/")
	require.NoError(t, err)
	second, err := s.Open(ctx, "https://b.example/")
	require.NoError(t, err)

	tabs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.Equal(t, first.ID, tabs[0].ID)
	assert.False(t, tabs[0].Active)
	assert.Equal(t, second.ID, tabs[1].ID)
	assert.True(t, tabs[1].Active)

	page, err := s.ActivePage(ctx)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, second.ID, page.ID)
	assert.Equal(t, "https://b.example/", page.URL)
}

func TestTabStore_OpenRequiresURL(t *testing.T) {
	s := newTabStore(t)

	_, err := s.Open(context.Background(), "  ")

	assert.Error(t, err)
}

func TestTabStore_UseAndClose(t *testing.T) {
	s := newTabStore(t)
	ctx := context.Background()

	first, err := s.Open(ctx, "https://a.example/")
	require.NoError(t, err)
	_, err = s.Open(ctx, "chrome://extensions")
	require.NoError(t, err)

	used, err := s.Use(ctx, first.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, first.ID, used.ID)

	page, err := s.ActivePage(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, page.ID)

	_, err = s.Close(ctx, first.ID)
	require.NoError(t, err)

	page, err = s.ActivePage(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)

	tabs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tabs, 1)
}

func TestTabStore_UnknownTab(t *testing.T) {
	s := newTabStore(t)
	ctx := context.Background()

	_, err := s.Use(ctx, "missing")
	assert.ErrorIs(t, err, ErrTabNotFound)

	_, err = s.Close(ctx, "missing")
	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestTabStore_NoTabs(t *testing.T) {
	s := newTabStore(t)

	page, err := s.ActivePage(context.Background())

	require.NoError(t, err)
	assert.Nil(t, page)
}
