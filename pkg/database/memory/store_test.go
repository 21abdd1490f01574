package memory

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"PhotoAlbum/pkg/database/storetest"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Harness {
		s := NewStore()
		return storetest.Harness{
			Store:     s,
			SeedAlbum: func(_ *testing.T, a models.Album) { s.SeedAlbum(a) },
			SeedPhoto: func(_ *testing.T, p models.Photo) { s.SeedPhoto(p) },
			SeedUser:  func(_ *testing.T, u models.User) { s.SeedUser(u) },
			SeedNullPhoto: func(_ *testing.T, id, ownerID int64) {
				s.SeedPhoto(models.Photo{ID: id, Filename: "null.jpg", OwnerID: ownerID})
			},
		}
	})
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sequences().NextID(ctx, database.KindPhoto)
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)

	// 分配ID失败时不能写入记录
	_, err = s.Albums().Create(ctx, "Summer", 1)
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)
	all, err := s.Albums().GetAll(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := &models.Photo{Filename: "a.jpg", Tags: []string{"x"}}
	assert.NoError(t, s.Photos().Create(ctx, 1, p))

	got, err := s.Photos().GetByID(ctx, p.ID)
	assert.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := s.Photos().GetByID(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"x"}, again.Tags)
}
