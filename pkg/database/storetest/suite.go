// Package storetest 包含与具体后端无关的 database.Store 一致性测试。
// 内存后端在单元测试中运行它，MongoDB 后端在 integration 构建标签下运行它。
package storetest

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Harness 是一个空的存储以及直接写入历史数据的入口。
// Seed* 写入的记录不会经过计数器，用来模拟计数器出现之前就存在的数据。
type Harness struct {
	Store     database.Store
	SeedAlbum func(t *testing.T, a models.Album)
	SeedPhoto func(t *testing.T, p models.Photo)
	SeedUser  func(t *testing.T, u models.User)
	// SeedNullPhoto 写入 tags、albums、visibility 显式为 null 的历史照片。
	SeedNullPhoto func(t *testing.T, id, ownerID int64)
}

// Run 对 newHarness 返回的每个新存储执行全部用例。
func Run(t *testing.T, newHarness func(t *testing.T) Harness) {
	cases := []struct {
		name string
		fn   func(t *testing.T, h Harness)
	}{
		{"NextID_Sequential", testNextIDSequential},
		{"NextID_Concurrent", testNextIDConcurrent},
		{"NextID_BootstrapFromExisting", testNextIDBootstrap},
		{"Albums_CreateAndLookup", testAlbumsCreateAndLookup},
		{"Albums_GetByNameFirstMatch", testAlbumsFirstMatch},
		{"Albums_RejectBlankName", testAlbumsBlankName},
		{"Photos_Create", testPhotosCreate},
		{"Photos_ListByAlbum", testPhotosListByAlbum},
		{"Photos_UpdateMissing", testPhotosUpdateMissing},
		{"Photos_UpdatePartial", testPhotosUpdatePartial},
		{"Photos_AddTagIdempotent", testPhotosAddTag},
		{"Photos_AddToAlbumIdempotent", testPhotosAddToAlbum},
		{"Photos_NormalizeOnRead", testPhotosNormalizeOnRead},
		{"Photos_AddToNullArrays", testPhotosAddToNullArrays},
		{"Photos_ListByPerceptualHash", testPhotosPerceptualHash},
		{"Comments_InsertionOrder", testCommentsOrder},
		{"Users_DuplicateUsername", testUsersDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newHarness(t))
		})
	}
}

func testNextIDSequential(t *testing.T, h Harness) {
	ctx := context.Background()
	seq := h.Store.Sequences()

	for want := int64(1); want <= 3; want++ {
		got, err := seq.NextID(ctx, database.KindAlbum)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	// 不同实体的计数器互不影响
	got, err := seq.NextID(ctx, database.KindPhoto)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func testNextIDConcurrent(t *testing.T, h Harness) {
	const n = 50
	ctx := context.Background()
	seq := h.Store.Sequences()

	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = seq.NextID(ctx, database.KindPhoto)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id, "IDs must be exactly 1..N")
	}
}

func testNextIDBootstrap(t *testing.T, h Harness) {
	ctx := context.Background()
	h.SeedAlbum(t, models.Album{ID: 7, Name: "legacy", OwnerID: 1})
	h.SeedAlbum(t, models.Album{ID: 3, Name: "older", OwnerID: 1})
	h.SeedUser(t, models.User{OwnerID: 12, Username: "legacy-user"})

	album, err := h.Store.Albums().Create(ctx, "new", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(8), album.ID)

	owner, err := h.Store.Sequences().NextID(ctx, database.KindOwner)
	require.NoError(t, err)
	assert.Equal(t, int64(13), owner)
}

func testAlbumsCreateAndLookup(t *testing.T, h Harness) {
	ctx := context.Background()
	albums := h.Store.Albums()

	summer, err := albums.Create(ctx, "  Summer ", 42)
	require.NoError(t, err)
	assert.NotZero(t, summer.ID)
	assert.Equal(t, "Summer", summer.Name)

	winter, err := albums.Create(ctx, "Winter", 42)
	require.NoError(t, err)
	assert.Greater(t, winter.ID, summer.ID)

	got, err := albums.GetByID(ctx, summer.ID)
	require.NoError(t, err)
	assert.Equal(t, *summer, *got)

	byName, err := albums.GetByName(ctx, "Winter")
	require.NoError(t, err)
	assert.Equal(t, winter.ID, byName.ID)

	_, err = albums.GetByName(ctx, "winter")
	assert.ErrorIs(t, err, database.ErrNotFound, "name lookup is case-sensitive")

	_, err = albums.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)

	all, err := albums.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testAlbumsFirstMatch(t *testing.T, h Harness) {
	ctx := context.Background()
	first, err := h.Store.Albums().Create(ctx, "Trips", 1)
	require.NoError(t, err)
	_, err = h.Store.Albums().Create(ctx, "Trips", 2)
	require.NoError(t, err)

	got, err := h.Store.Albums().GetByName(ctx, "Trips")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func testAlbumsBlankName(t *testing.T, h Harness) {
	_, err := h.Store.Albums().Create(context.Background(), "   ", 1)
	assert.ErrorIs(t, err, database.ErrInvalidInput)

	all, err := h.Store.Albums().GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testPhotosCreate(t *testing.T, h Harness) {
	ctx := context.Background()
	photo := &models.Photo{
		Filename: "beach.jpg",
		Title:    "Beach",
		Tags:     []string{" Sea", "SEA", "sand"},
		OwnerID:  42,
	}
	require.NoError(t, h.Store.Photos().Create(ctx, 5, photo))
	assert.NotZero(t, photo.ID)
	assert.Equal(t, []int64{5}, photo.Albums)
	assert.Equal(t, []string{"sea", "sand"}, photo.Tags)
	assert.Equal(t, models.Public, photo.Visibility)

	got, err := h.Store.Photos().GetByID(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, photo.Title, got.Title)
	assert.Equal(t, []int64{5}, got.Albums)
	assert.Equal(t, []string{"sea", "sand"}, got.Tags)

	_, err = h.Store.Photos().GetByID(ctx, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)

	bad := &models.Photo{Filename: "x.jpg", Visibility: "friends"}
	assert.ErrorIs(t, h.Store.Photos().Create(ctx, 5, bad), database.ErrInvalidInput)
	assert.Zero(t, bad.ID)
}

func testPhotosListByAlbum(t *testing.T, h Harness) {
	ctx := context.Background()
	photos := h.Store.Photos()

	a := &models.Photo{Filename: "a.jpg"}
	b := &models.Photo{Filename: "b.jpg"}
	c := &models.Photo{Filename: "c.jpg"}
	require.NoError(t, photos.Create(ctx, 1, a))
	require.NoError(t, photos.Create(ctx, 2, b))
	require.NoError(t, photos.Create(ctx, 1, c))

	inOne, err := photos.ListByAlbum(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID}, photoIDs(inOne))

	none, err := photos.ListByAlbum(ctx, 404)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	all, err := photos.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testPhotosUpdateMissing(t *testing.T, h Harness) {
	ctx := context.Background()
	ok, err := h.Store.Photos().Update(ctx, 9999, database.PhotoUpdate{Title: "x"})
	assert.False(t, ok)
	assert.ErrorIs(t, err, database.ErrNotFound)

	all, err := h.Store.Photos().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "update of a missing photo must not create one")
}

func testPhotosUpdatePartial(t *testing.T, h Harness) {
	ctx := context.Background()
	photos := h.Store.Photos()
	p := &models.Photo{Filename: "p.jpg", Title: "old", Tags: []string{"keep"}, Visibility: models.Private}
	require.NoError(t, photos.Create(ctx, 1, p))

	ok, err := photos.Update(ctx, p.ID, database.PhotoUpdate{Title: "new", Description: "desc"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := photos.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "desc", got.Description)
	assert.Equal(t, models.Private, got.Visibility, "empty visibility leaves the value untouched")
	assert.Equal(t, []string{"keep"}, got.Tags, "nil tags leave the list untouched")

	ok, err = photos.Update(ctx, p.ID, database.PhotoUpdate{
		Title:       "new",
		Description: "desc",
		Visibility:  models.Public,
		Tags:        []string{"A", "b", "a"},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = photos.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Public, got.Visibility)
	assert.Equal(t, []string{"a", "b"}, got.Tags, "tags are replaced wholesale")

	// 相同的值不算修改
	ok, err = photos.Update(ctx, p.ID, database.PhotoUpdate{Title: "new", Description: "desc"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = photos.Update(ctx, p.ID, database.PhotoUpdate{Visibility: "hidden"})
	assert.ErrorIs(t, err, database.ErrInvalidInput)
}

func testPhotosAddTag(t *testing.T, h Harness) {
	ctx := context.Background()
	photos := h.Store.Photos()
	p := &models.Photo{Filename: "t.jpg"}
	require.NoError(t, photos.Create(ctx, 1, p))

	added, err := photos.AddTag(ctx, p.ID, "Sunset")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = photos.AddTag(ctx, p.ID, " sunset ")
	require.NoError(t, err)
	assert.False(t, added, "second add reports no change")

	got, err := photos.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset"}, got.Tags)

	_, err = photos.AddTag(ctx, p.ID, "   ")
	assert.ErrorIs(t, err, database.ErrInvalidInput)

	added, err = photos.AddTag(ctx, 9999, "x")
	assert.False(t, added)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func testPhotosAddToAlbum(t *testing.T, h Harness) {
	ctx := context.Background()
	photos := h.Store.Photos()
	p := &models.Photo{Filename: "m.jpg"}
	require.NoError(t, photos.Create(ctx, 1, p))

	added, err := photos.AddToAlbum(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = photos.AddToAlbum(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = photos.AddToAlbum(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, added)

	got, err := photos.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got.Albums)

	inTwo, err := photos.ListByAlbum(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{p.ID}, photoIDs(inTwo))

	_, err = photos.AddToAlbum(ctx, 9999, 1)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func testPhotosNormalizeOnRead(t *testing.T, h Harness) {
	ctx := context.Background()
	h.SeedPhoto(t, models.Photo{ID: 20, Filename: "legacy.jpg", OwnerID: 3})

	got, err := h.Store.Photos().GetByID(ctx, 20)
	require.NoError(t, err)
	assert.NotNil(t, got.Tags)
	assert.NotNil(t, got.Albums)
	assert.Equal(t, models.Public, got.Visibility)

	added, err := h.Store.Photos().AddTag(ctx, 20, "old")
	require.NoError(t, err)
	assert.True(t, added)

	// 计数器从已有的最大ID继续
	p := &models.Photo{Filename: "next.jpg"}
	require.NoError(t, h.Store.Photos().Create(ctx, 1, p))
	assert.Equal(t, int64(21), p.ID)
}

func testPhotosAddToNullArrays(t *testing.T, h Harness) {
	ctx := context.Background()
	photos := h.Store.Photos()
	h.SeedNullPhoto(t, 30, 3)

	got, err := photos.GetByID(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, []int64{}, got.Albums)
	assert.Equal(t, models.Public, got.Visibility)

	added, err := photos.AddTag(ctx, 30, "Old")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = photos.AddTag(ctx, 30, "old")
	require.NoError(t, err)
	assert.False(t, added)

	added, err = photos.AddToAlbum(ctx, 30, 4)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = photos.AddToAlbum(ctx, 30, 4)
	require.NoError(t, err)
	assert.False(t, added)

	got, err = photos.GetByID(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, got.Tags)
	assert.Equal(t, []int64{4}, got.Albums)

	inAlbum, err := photos.ListByAlbum(ctx, 4)
	require.NoError(t, err)
	require.Len(t, inAlbum, 1)
	assert.Equal(t, int64(30), inAlbum[0].ID)
}

func testPhotosPerceptualHash(t *testing.T, h Harness) {
	ctx := context.Background()
	photos := h.Store.Photos()
	a := &models.Photo{Filename: "a.jpg", PerceptualHash: "123"}
	b := &models.Photo{Filename: "b.jpg", PerceptualHash: "456"}
	require.NoError(t, photos.Create(ctx, 1, a))
	require.NoError(t, photos.Create(ctx, 1, b))

	got, err := photos.ListByPerceptualHash(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, photoIDs(got))

	empty, err := photos.ListByPerceptualHash(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testCommentsOrder(t *testing.T, h Harness) {
	ctx := context.Background()
	comments := h.Store.Comments()
	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, comments.Append(ctx, 7, "bob", text))
	}
	require.NoError(t, comments.Append(ctx, 8, "bob", "other photo"))

	got, err := comments.ListByPhoto(ctx, 7)
	require.NoError(t, err)
	texts := make([]string, len(got))
	for i, c := range got {
		texts[i] = c.Text
		assert.Equal(t, "bob", c.Username)
		assert.False(t, c.Date.IsZero())
	}
	assert.Equal(t, []string{"a", "b", "c"}, texts)

	// 不检查照片是否存在
	none, err := comments.ListByPhoto(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUsersDuplicate(t *testing.T, h Harness) {
	ctx := context.Background()
	users := h.Store.Users()
	require.NoError(t, users.Create(ctx, &models.User{OwnerID: 1, Username: "alice"}))

	err := users.Create(ctx, &models.User{OwnerID: 2, Username: "alice"})
	assert.ErrorIs(t, err, database.ErrDuplicateName)

	got, err := users.GetByOwnerID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func photoIDs(photos []models.Photo) []int64 {
	ids := make([]int64, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return ids
}
