package catalog

import (
	"PhotoAlbum/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterVisible(t *testing.T) {
	tests := []struct {
		name       string
		photo      models.Photo
		viewer     int64
		wantListed bool
	}{
		{"public, stranger", models.Photo{Visibility: models.Public, OwnerID: 1}, 2, true},
		{"public, owner", models.Photo{Visibility: models.Public, OwnerID: 1}, 1, true},
		{"private, owner", models.Photo{Visibility: models.Private, OwnerID: 1}, 1, true},
		{"private, stranger", models.Photo{Visibility: models.Private, OwnerID: 1}, 2, false},
		{"unset visibility counts as public", models.Photo{OwnerID: 1}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterVisible([]models.Photo{tt.photo}, tt.viewer)
			assert.Equal(t, tt.wantListed, len(got) == 1)
			assert.Equal(t, tt.wantListed, CanView(tt.photo, tt.viewer))
		})
	}
}

func TestFilterPublic(t *testing.T) {
	photos := []models.Photo{
		{ID: 1, Visibility: models.Public, OwnerID: 1},
		{ID: 2, Visibility: models.Private, OwnerID: 1},
		{ID: 3, Visibility: models.Public, OwnerID: 2},
	}
	got := FilterPublic(photos)
	assert.Equal(t, []int64{1, 3}, ids(got))
}
