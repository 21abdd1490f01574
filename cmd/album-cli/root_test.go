package main

import (
	"PhotoAlbum/config"
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/catalog"
	"PhotoAlbum/pkg/database"
	"PhotoAlbum/pkg/database/memory"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.SeedAlbum(models.Album{ID: 1, Name: "Summer", OwnerID: 42})
	store.SeedPhoto(models.Photo{ID: 5, Title: "sunset", Visibility: models.Private, OwnerID: 42, Albums: []int64{1}})
	store.SeedPhoto(models.Photo{ID: 6, Title: "beach", Description: "sand", Visibility: models.Public, OwnerID: 99, Albums: []int64{1}})

	orig := openStore
	openStore = func(config.DatabaseConfig) (database.Store, error) { return store, nil }
	t.Cleanup(func() { openStore = orig })
	return store
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	err := execute(context.Background(), root, a)
	return out.String(), err
}

func TestCLI_AlbumRespectsVisibility(t *testing.T) {
	newTestStore(t)

	out, err := run(t, "", "album", "Summer", "--viewer", "7", "--output", "yaml")
	require.NoError(t, err)
	var got struct {
		Album  models.Album   `yaml:"album"`
		Photos []models.Photo `yaml:"photos"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(1), got.Album.ID)
	require.Len(t, got.Photos, 1)
	assert.Equal(t, int64(6), got.Photos[0].ID)

	out, err = run(t, "", "album", "Summer", "--viewer", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "sunset")
	assert.Contains(t, out, "beach")

	_, err = run(t, "", "album", "summer")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCLI_PhotoForbidden(t *testing.T) {
	newTestStore(t)

	_, err := run(t, "", "photo", "5", "--viewer", "7")
	assert.ErrorIs(t, err, catalog.ErrForbidden)

	out, err := run(t, "", "photo", "5", "--viewer", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "sunset")

	_, err = run(t, "", "photo", "x")
	assert.ErrorIs(t, err, database.ErrInvalidInput)
}

func TestCLI_EditCommands(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := run(t, "", "add-tag", "6", "Sea", "--viewer", "7")
	assert.ErrorIs(t, err, catalog.ErrForbidden)

	out, err := run(t, "", "add-tag", "6", " Sea ", "--viewer", "99")
	require.NoError(t, err)
	assert.Contains(t, out, "sea")

	_, err = run(t, "", "update-photo", "6", "--viewer", "99", "--title", "Beach day")
	require.NoError(t, err)
	photo, err := store.Photos().GetByID(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, "Beach day", photo.Title)
	assert.Equal(t, "sand", photo.Description)
	assert.Equal(t, []string{"sea"}, photo.Tags)

	out, err = run(t, "", "create-album", "Winter", "--owner", "99", "-o", "yaml")
	require.NoError(t, err)
	var album models.Album
	require.NoError(t, yaml.Unmarshal([]byte(out), &album))
	assert.Equal(t, int64(2), album.ID)
	assert.Equal(t, int64(99), album.OwnerID)
}

func TestCLI_CommentsAndSearch(t *testing.T) {
	newTestStore(t)

	_, err := run(t, "", "comment", "6", "--viewer", "7", "--user", "bob", "--text", "lovely")
	require.NoError(t, err)

	out, err := run(t, "", "comments", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "bob: lovely")

	out, err = run(t, "", "search", "SAND", "--viewer", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "beach")

	out, err = run(t, "", "search", "sunset", "--viewer", "42")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestCLI_Register(t *testing.T) {
	store := newTestStore(t)

	out, err := run(t, "hunter2\n", "register", "carol", "--email", "carol@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "carol")

	user, err := store.Users().GetByUsername(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", user.Email)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	_, err = run(t, "x\n", "register", "carol")
	assert.ErrorIs(t, err, database.ErrDuplicateName)
}

// trackingStore 记录 CLI 对存储生命周期方法的调用。
type trackingStore struct {
	database.Store
	indexed int
	closed  int
}

func (s *trackingStore) EnsureIndexes(ctx context.Context) error {
	s.indexed++
	return s.Store.EnsureIndexes(ctx)
}

func (s *trackingStore) Close(ctx context.Context) error {
	s.closed++
	return s.Store.Close(ctx)
}

func TestCLI_StoreLifecycle(t *testing.T) {
	tracked := &trackingStore{Store: newTestStore(t)}
	openStore = func(config.DatabaseConfig) (database.Store, error) { return tracked, nil }

	_, err := run(t, "", "albums")
	require.NoError(t, err)
	assert.Equal(t, 1, tracked.indexed)
	assert.Equal(t, 1, tracked.closed)

	// 命令失败时存储同样要关闭
	_, err = run(t, "", "photo", "404")
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.Equal(t, 2, tracked.indexed)
	assert.Equal(t, 2, tracked.closed)

	_, err = run(t, "", "create-album", "Nobody")
	assert.ErrorIs(t, err, database.ErrInvalidInput)
	assert.Equal(t, 3, tracked.closed)
}

func TestCLI_ImportRequiresOwner(t *testing.T) {
	newTestStore(t)

	_, err := run(t, "", "import", t.TempDir(), "--album", "1")
	assert.Error(t, err)
}

func TestCLI_InvalidOutput(t *testing.T) {
	newTestStore(t)
	_, err := run(t, "", "albums", "--output", "xml")
	assert.Error(t, err)
}
