package api

import (
	"PhotoAlbum/config"
	"PhotoAlbum/internal/models"
	"PhotoAlbum/internal/session"
	"PhotoAlbum/pkg/auth"
	"PhotoAlbum/pkg/catalog"
	"PhotoAlbum/pkg/database"
	"PhotoAlbum/pkg/imageinfo"
	"PhotoAlbum/pkg/notify"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Dependencies 是构建路由需要的全部服务。
type Dependencies struct {
	Catalog  *catalog.Service
	Auth     *auth.Service
	Sessions *session.Manager
	Outbox   *notify.Outbox
	Metrics  *Metrics
	Server   config.ServerConfig
	Upload   config.UploadConfig
	Logger   *slog.Logger
}

// APIHandlers 持有所有依赖
type APIHandlers struct {
	catalog  *catalog.Service
	auth     *auth.Service
	sessions *session.Manager
	outbox   *notify.Outbox
	upload   config.UploadConfig
	logger   *slog.Logger
}

func NewAPIHandlers(deps Dependencies) *APIHandlers {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	upload := deps.Upload
	if upload.MaxBytes <= 0 {
		upload.MaxBytes = 10 << 20
	}
	return &APIHandlers{
		catalog:  deps.Catalog,
		auth:     deps.Auth,
		sessions: deps.Sessions,
		outbox:   deps.Outbox,
		upload:   upload,
		logger:   logger,
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: 无效的ID %q", database.ErrInvalidInput, chi.URLParam(r, name))
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: 无效的请求体: %v", database.ErrInvalidInput, err)
	}
	return nil
}

// --- 用户 ---

func (h *APIHandlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.respondErr(w, r, err)
		return
	}
	user, err := h.auth.Register(r.Context(), auth.Registration{
		Name:     payload.Name,
		Email:    payload.Email,
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *APIHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.respondErr(w, r, err)
		return
	}
	user, err := h.auth.Verify(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	s := h.sessions.Create(catalog.Viewer{OwnerID: user.OwnerID, Username: user.Username})
	respondJSON(w, http.StatusOK, s)
}

func (h *APIHandlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

// --- 相册 ---

func (h *APIHandlers) HandleListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.catalog.ListAlbums(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, albums)
}

func (h *APIHandlers) HandleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.respondErr(w, r, err)
		return
	}
	album, err := h.catalog.CreateAlbum(r.Context(), payload.Name, viewerFrom(r).OwnerID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, album)
}

func (h *APIHandlers) HandleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "albumID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	album, err := h.catalog.GetAlbum(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, album)
}

func (h *APIHandlers) HandleGetAlbumByName(w http.ResponseWriter, r *http.Request) {
	album, err := h.catalog.GetAlbumByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, album)
}

func (h *APIHandlers) HandleListPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "albumID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	photos, err := h.catalog.ListPhotos(r.Context(), id, viewerFrom(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, photos)
}

// HandleUploadPhoto 接收 multipart 表单中的 "photo" 文件。文件本身不保存，
// 只记录元数据、缩略图和感知哈希。
func (h *APIHandlers) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "albumID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxBytes)
	if err := r.ParseMultipartForm(h.upload.MaxBytes); err != nil {
		respondError(w, http.StatusBadRequest, "无法解析表单: "+err.Error())
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "获取上传文件失败: "+err.Error())
		return
	}
	defer file.Close()

	info, err := imageinfo.Inspect(file, h.upload.ThumbWidth, h.upload.ThumbHeight)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	visibility := models.Visibility(strings.TrimSpace(r.FormValue("visibility")))
	if visibility == "" {
		visibility = models.Public
	}
	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	photo, err := h.catalog.UploadPhoto(r.Context(), catalog.NewPhoto{
		AlbumID:        albumID,
		OwnerID:        viewerFrom(r).OwnerID,
		Filename:       header.Filename,
		Title:          r.FormValue("title"),
		Description:    r.FormValue("description"),
		Visibility:     visibility,
		Tags:           tags,
		Date:           time.Now().UTC(),
		Resolution:     info.Resolution,
		Thumbnail:      info.Thumbnail,
		PerceptualHash: info.PerceptualHash,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, photo)
}

// --- 照片 ---

func (h *APIHandlers) HandleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "photoID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	photo, err := h.catalog.ViewPhoto(r.Context(), id, viewerFrom(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

func (h *APIHandlers) HandleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "photoID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var payload struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Visibility  models.Visibility `json:"visibility"`
		Tags        []string          `json:"tags"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if _, err := h.catalog.RequireOwner(r.Context(), id, viewerFrom(r)); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if _, err := h.catalog.UpdatePhoto(r.Context(), id, database.PhotoUpdate{
		Title:       payload.Title,
		Description: payload.Description,
		Visibility:  payload.Visibility,
		Tags:        payload.Tags,
	}); err != nil {
		h.respondErr(w, r, err)
		return
	}
	photo, err := h.catalog.GetPhoto(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

func (h *APIHandlers) HandleAddTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "photoID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var payload struct {
		Tag string `json:"tag"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if _, err := h.catalog.RequireOwner(r.Context(), id, viewerFrom(r)); err != nil {
		h.respondErr(w, r, err)
		return
	}
	added, err := h.catalog.AddTag(r.Context(), id, payload.Tag)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"added": added})
}

// HandleAddToAlbum 只检查照片的所有权，相册本身对所有登录用户开放。
func (h *APIHandlers) HandleAddToAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "photoID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var payload struct {
		AlbumID int64 `json:"albumId"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if _, err := h.catalog.RequireOwner(r.Context(), id, viewerFrom(r)); err != nil {
		h.respondErr(w, r, err)
		return
	}
	added, err := h.catalog.AddToAlbum(r.Context(), id, payload.AlbumID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"added": added})
}

// --- 评论 ---

// HandleListComments 要求 viewer 能看到照片本身，发表评论同理。
func (h *APIHandlers) HandleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "photoID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if _, err := h.catalog.ViewPhoto(r.Context(), id, viewerFrom(r)); err != nil {
		h.respondErr(w, r, err)
		return
	}
	comments, err := h.catalog.ListComments(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

func (h *APIHandlers) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "photoID")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		h.respondErr(w, r, err)
		return
	}
	viewer := viewerFrom(r)
	if _, err := h.catalog.ViewPhoto(r.Context(), id, viewer); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := h.catalog.AddComment(r.Context(), id, viewer, payload.Text); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// --- 搜索 ---

func (h *APIHandlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		respondError(w, http.StatusBadRequest, "缺少搜索查询参数 'q'")
		return
	}
	photos, err := h.catalog.Search(r.Context(), query, viewerFrom(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":       photos,
		"totalItems": len(photos),
	})
}

func (h *APIHandlers) HandleSearchSimilar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxBytes)
	if err := r.ParseMultipartForm(h.upload.MaxBytes); err != nil {
		respondError(w, http.StatusBadRequest, "无法解析表单: "+err.Error())
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "获取上传文件失败: "+err.Error())
		return
	}
	defer file.Close()

	hash, err := imageinfo.HashReader(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "计算图片哈希失败: "+err.Error())
		return
	}
	photos, err := h.catalog.SimilarPhotos(r.Context(), hash)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":       photos,
		"totalItems": len(photos),
	})
}

// --- 通知 ---

func (h *APIHandlers) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.outbox.For(viewerFrom(r).OwnerID))
}
