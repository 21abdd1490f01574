package session

import (
	"PhotoAlbum/pkg/catalog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateLookupDelete(t *testing.T) {
	m := NewManager(time.Hour)
	viewer := catalog.Viewer{OwnerID: 42, Username: "alice"}

	s := m.Create(viewer)
	require.NotEmpty(t, s.Token)

	got, err := m.Lookup(s.Token)
	require.NoError(t, err)
	assert.Equal(t, viewer, got)

	other := m.Create(viewer)
	assert.NotEqual(t, s.Token, other.Token)

	m.Delete(s.Token)
	_, err = m.Lookup(s.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Lookup("unknown")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager(time.Minute)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	s := m.Create(catalog.Viewer{OwnerID: 1})
	m.Create(catalog.Viewer{OwnerID: 2})

	clock = clock.Add(30 * time.Second)
	_, err := m.Lookup(s.Token)
	assert.NoError(t, err)

	clock = clock.Add(31 * time.Second)
	_, err = m.Lookup(s.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.Equal(t, 2, m.Sweep())
	assert.Equal(t, 0, m.Sweep())
}
