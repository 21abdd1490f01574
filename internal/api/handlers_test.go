package api

import (
	"PhotoAlbum/config"
	"PhotoAlbum/internal/models"
	"PhotoAlbum/internal/session"
	"PhotoAlbum/pkg/auth"
	"PhotoAlbum/pkg/catalog"
	"PhotoAlbum/pkg/database"
	"PhotoAlbum/pkg/database/memory"
	"PhotoAlbum/pkg/logger"
	"PhotoAlbum/pkg/notify"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	store  *memory.Store
	outbox *notify.Outbox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	outbox := notify.NewOutbox(logger.Discard())
	router := RegisterRoutes(Dependencies{
		Catalog:  catalog.New(store, outbox, logger.Discard()),
		Auth:     auth.NewService(store.Users(), store.Sequences()),
		Sessions: session.NewManager(time.Hour),
		Outbox:   outbox,
		Metrics:  NewMetrics(),
		Upload:   config.UploadConfig{MaxBytes: 1 << 20, ThumbWidth: 32, ThumbHeight: 32},
		Logger:   logger.Discard(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, outbox: outbox}
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return s.do(t, method, path, token, body, "application/json")
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

// login 注册并登录用户，返回会话令牌和 ownerID。
func (s *testServer) login(t *testing.T, username string) (string, int64) {
	t.Helper()
	resp := s.doJSON(t, http.MethodPost, "/api/v1/register", "", map[string]string{
		"name": username, "email": username + "@example.com", "username": username, "password": "secret-" + username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.doJSON(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": username, "password": "secret-" + username,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess session.Session
	decode(t, resp, &sess)
	require.NotEmpty(t, sess.Token)
	return sess.Token, sess.Viewer.OwnerID
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename string, data []byte, values map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAPI_RequiresSession(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/api/v1/albums", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/albums", "not-a-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_LoginAndLogout(t *testing.T) {
	srv := newTestServer(t)
	token, ownerID := srv.login(t, "alice")
	assert.Equal(t, int64(1), ownerID)

	resp := srv.doJSON(t, http.MethodPost, "/api/v1/register", "", map[string]string{"username": "alice", "password": "x"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/v1/logout", token, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/albums", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_UploadAndVisibility(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := srv.login(t, "alice")
	bob, _ := srv.login(t, "bob")

	resp := srv.doJSON(t, http.MethodPost, "/api/v1/albums", alice, map[string]string{"name": "Summer"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var album models.Album
	decode(t, resp, &album)
	assert.Equal(t, aliceID, album.OwnerID)

	body, ct := multipartBody(t, "photo", "sunset.png", pngBytes(t), map[string]string{
		"title": "Sunset", "visibility": "private", "tags": "Beach, sea",
	})
	resp = srv.do(t, http.MethodPost, fmt.Sprintf("/api/v1/albums/%d/photos", album.ID), alice, body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var photo models.Photo
	decode(t, resp, &photo)
	assert.Equal(t, "40x30", photo.Resolution)
	assert.Equal(t, []string{"beach", "sea"}, photo.Tags)
	assert.Equal(t, []int64{album.ID}, photo.Albums)
	assert.NotEmpty(t, photo.PerceptualHash)

	photoPath := fmt.Sprintf("/api/v1/photos/%d", photo.ID)
	albumPhotos := fmt.Sprintf("/api/v1/albums/%d/photos", album.ID)

	resp = srv.do(t, http.MethodGet, photoPath, alice, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, photoPath, bob, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var listed []models.Photo
	resp = srv.do(t, http.MethodGet, albumPhotos, bob, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &listed)
	assert.Empty(t, listed)

	resp = srv.do(t, http.MethodGet, albumPhotos, alice, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &listed)
	assert.Len(t, listed, 1)

	var found struct {
		Data       []models.Photo `json:"data"`
		TotalItems int            `json:"totalItems"`
	}
	resp = srv.do(t, http.MethodGet, "/api/v1/search?q=sunset", alice, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &found)
	assert.Equal(t, 0, found.TotalItems, "search never returns private photos")

	resp = srv.do(t, http.MethodGet, "/api/v1/photos/999", alice, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/photos/abc", alice, nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_UploadRejectsNonImage(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := srv.login(t, "alice")
	srv.store.SeedAlbum(models.Album{ID: 3, Name: "Misc", OwnerID: aliceID})

	body, ct := multipartBody(t, "photo", "notes.txt", []byte("plain text"), nil)
	resp := srv.do(t, http.MethodPost, "/api/v1/albums/3/photos", alice, body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, ct = multipartBody(t, "photo", "x.png", pngBytes(t), nil)
	resp = srv.do(t, http.MethodPost, "/api/v1/albums/404/photos", alice, body, ct)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_EditRequiresOwner(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := srv.login(t, "alice")
	bob, _ := srv.login(t, "bob")
	srv.store.SeedAlbum(models.Album{ID: 1, Name: "Summer", OwnerID: aliceID})
	srv.store.SeedAlbum(models.Album{ID: 2, Name: "Best of", OwnerID: aliceID})
	srv.store.SeedPhoto(models.Photo{ID: 6, Title: "beach", Visibility: models.Public, OwnerID: aliceID, Albums: []int64{1}})

	resp := srv.doJSON(t, http.MethodPut, "/api/v1/photos/6", bob, map[string]string{"title": "mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/photos/6/tags", bob, map[string]string{"tag": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var added map[string]bool
	resp = srv.doJSON(t, http.MethodPost, "/api/v1/photos/6/tags", alice, map[string]string{"tag": "Sea"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &added)
	assert.True(t, added["added"])

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/photos/6/tags", alice, map[string]string{"tag": "sea"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &added)
	assert.False(t, added["added"])

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/photos/6/albums", alice, map[string]int64{"albumId": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.doJSON(t, http.MethodPut, "/api/v1/photos/6", alice, map[string]interface{}{
		"title": "Beach day", "description": "hot", "visibility": "private",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var photo models.Photo
	decode(t, resp, &photo)
	assert.Equal(t, "Beach day", photo.Title)
	assert.Equal(t, models.Private, photo.Visibility)
	assert.Equal(t, []string{"sea"}, photo.Tags, "omitted tags stay unchanged")
	assert.Equal(t, []int64{1, 2}, photo.Albums)

	resp = srv.doJSON(t, http.MethodPut, "/api/v1/photos/6", alice, map[string]string{"visibility": "friends"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// 相册是共享的：任何登录用户都能往别人的相册里上传或加入自己的照片，
// 但只能移动自己的照片。
func TestAPI_AlbumsAreShared(t *testing.T) {
	srv := newTestServer(t)
	_, aliceID := srv.login(t, "alice")
	bob, bobID := srv.login(t, "bob")
	srv.store.SeedAlbum(models.Album{ID: 1, Name: "Alice only", OwnerID: aliceID})
	srv.store.SeedAlbum(models.Album{ID: 2, Name: "Bob's", OwnerID: bobID})
	srv.store.SeedPhoto(models.Photo{ID: 7, Title: "alice", Visibility: models.Public, OwnerID: aliceID, Albums: []int64{1}})

	body, ct := multipartBody(t, "photo", "bob.png", pngBytes(t), nil)
	resp := srv.do(t, http.MethodPost, "/api/v1/albums/1/photos", bob, body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var uploaded models.Photo
	decode(t, resp, &uploaded)
	assert.Equal(t, bobID, uploaded.OwnerID)
	assert.Equal(t, []int64{1}, uploaded.Albums)

	var added map[string]bool
	resp = srv.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/photos/%d/albums", uploaded.ID), bob, map[string]int64{"albumId": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &added)
	assert.True(t, added["added"])

	resp = srv.doJSON(t, http.MethodPost, "/api/v1/photos/7/albums", bob, map[string]int64{"albumId": 2})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_CommentsNotifyOwner(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := srv.login(t, "alice")
	bob, _ := srv.login(t, "bob")
	srv.store.SeedAlbum(models.Album{ID: 1, Name: "Summer", OwnerID: aliceID})
	srv.store.SeedPhoto(models.Photo{ID: 6, Title: "beach", Visibility: models.Public, OwnerID: aliceID, Albums: []int64{1}})
	srv.store.SeedPhoto(models.Photo{ID: 7, Title: "secret", Visibility: models.Private, OwnerID: aliceID, Albums: []int64{1}})

	resp := srv.doJSON(t, http.MethodPost, "/api/v1/photos/6/comments", bob, map[string]string{"text": "nice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = srv.doJSON(t, http.MethodPost, "/api/v1/photos/6/comments", bob, map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = srv.doJSON(t, http.MethodPost, "/api/v1/photos/7/comments", bob, map[string]string{"text": "peek"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var comments []models.Comment
	resp = srv.do(t, http.MethodGet, "/api/v1/photos/6/comments", alice, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].Username)

	var notes []notify.Notification
	resp = srv.do(t, http.MethodGet, "/api/v1/notifications", alice, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, "alice@example.com", notes[0].To)
	assert.Contains(t, notes[0].Body, "nice")
}

func TestAPI_SearchSimilar(t *testing.T) {
	srv := newTestServer(t)
	alice, _ := srv.login(t, "alice")

	resp := srv.doJSON(t, http.MethodPost, "/api/v1/albums", alice, map[string]string{"name": "Summer"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var album models.Album
	decode(t, resp, &album)

	data := pngBytes(t)
	body, ct := multipartBody(t, "photo", "a.png", data, map[string]string{"title": "a"})
	resp = srv.do(t, http.MethodPost, fmt.Sprintf("/api/v1/albums/%d/photos", album.ID), alice, body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, ct = multipartBody(t, "image", "query.png", data, nil)
	resp = srv.do(t, http.MethodPost, "/api/v1/search/similar", alice, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found struct {
		Data []models.Photo `json:"data"`
	}
	decode(t, resp, &found)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "a", found.Data[0].Title)
}

func TestAPI_Metrics(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/health", "", nil, "")

	resp := srv.do(t, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `album_http_requests_total{code="200",method="GET",route="/health"}`))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("photo 3: %w", database.ErrNotFound), http.StatusNotFound},
		{catalog.ErrForbidden, http.StatusForbidden},
		{database.ErrDuplicateName, http.StatusConflict},
		{database.ErrInvalidInput, http.StatusBadRequest},
		{database.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{session.ErrNoSession, http.StatusUnauthorized},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
