// Package catalog 是照片相册的业务核心：Web 和 CLI 适配层都只通过它访问数据。
// 列表接口按可见性规则静默过滤；按ID直接访问私有照片则返回 ErrForbidden。
package catalog

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"PhotoAlbum/pkg/notify"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrForbidden 表示 viewer 没有通过所有权或可见性检查。
var ErrForbidden = errors.New("forbidden")

type Service struct {
	db       database.Store
	notifier notify.Notifier
	logger   *slog.Logger
}

// New 创建业务服务。notifier 可以为 nil，此时不发送评论通知。
func New(db database.Store, notifier notify.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, notifier: notifier, logger: logger}
}

// --- 相册 ---

func (s *Service) ListAlbums(ctx context.Context) ([]models.Album, error) {
	return s.db.Albums().GetAll(ctx)
}

func (s *Service) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	return s.db.Albums().GetByID(ctx, id)
}

func (s *Service) GetAlbumByName(ctx context.Context, name string) (*models.Album, error) {
	return s.db.Albums().GetByName(ctx, name)
}

func (s *Service) CreateAlbum(ctx context.Context, name string, ownerID int64) (*models.Album, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: 相册必须有所有者", database.ErrInvalidInput)
	}
	album, err := s.db.Albums().Create(ctx, name, ownerID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("相册已创建", "albumId", album.ID, "name", album.Name, "ownerID", ownerID)
	return album, nil
}

// --- 照片 ---

// ListPhotos 返回相册中 viewer 可见的照片。相册不存在时返回空列表。
func (s *Service) ListPhotos(ctx context.Context, albumID int64, viewer Viewer) ([]models.Photo, error) {
	photos, err := s.db.Photos().ListByAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	return FilterVisible(photos, viewer.OwnerID), nil
}

// GetPhoto 不做任何访问检查，调用方展示详情前应使用 ViewPhoto。
func (s *Service) GetPhoto(ctx context.Context, id int64) (*models.Photo, error) {
	return s.db.Photos().GetByID(ctx, id)
}

// ViewPhoto 返回照片详情；私有照片且 viewer 不是所有者时返回 ErrForbidden。
func (s *Service) ViewPhoto(ctx context.Context, id int64, viewer Viewer) (*models.Photo, error) {
	photo, err := s.db.Photos().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(*photo, viewer.OwnerID) {
		return nil, fmt.Errorf("%w: 照片 %d 是私有的", ErrForbidden, id)
	}
	return photo, nil
}

// RequireOwner 在修改照片前检查编辑权限，只有所有者可以修改。
func (s *Service) RequireOwner(ctx context.Context, id int64, viewer Viewer) (*models.Photo, error) {
	photo, err := s.db.Photos().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if photo.OwnerID != viewer.OwnerID {
		return nil, fmt.Errorf("%w: 无权修改照片 %d", ErrForbidden, id)
	}
	return photo, nil
}

// UpdatePhoto 部分更新照片。id 不存在时返回 false 和 ErrNotFound。
func (s *Service) UpdatePhoto(ctx context.Context, id int64, upd database.PhotoUpdate) (bool, error) {
	return s.db.Photos().Update(ctx, id, upd)
}

// AddTag 幂等地添加标签，标签已存在时返回 false 而不是错误。
func (s *Service) AddTag(ctx context.Context, id int64, tag string) (bool, error) {
	return s.db.Photos().AddTag(ctx, id, tag)
}

// AddToAlbum 把照片加入另一个相册，相册必须存在。
func (s *Service) AddToAlbum(ctx context.Context, photoID, albumID int64) (bool, error) {
	if _, err := s.db.Albums().GetByID(ctx, albumID); err != nil {
		return false, fmt.Errorf("相册 %d: %w", albumID, err)
	}
	return s.db.Photos().AddToAlbum(ctx, photoID, albumID)
}

// NewPhoto 是上传照片时由适配层提供的数据。
type NewPhoto struct {
	AlbumID        int64
	OwnerID        int64
	Filename       string
	Title          string
	Description    string
	Visibility     models.Visibility
	Tags           []string
	Date           time.Time
	Resolution     string
	Thumbnail      string
	PerceptualHash string
}

// UploadPhoto 校验目标相册后创建照片记录。ID 分配失败时不会写入任何记录。
func (s *Service) UploadPhoto(ctx context.Context, in NewPhoto) (*models.Photo, error) {
	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: 文件名不能为空", database.ErrInvalidInput)
	}
	// ownerID 0 表示匿名，匿名的私有照片任何人都看不到
	if in.OwnerID <= 0 {
		return nil, fmt.Errorf("%w: 照片必须有所有者", database.ErrInvalidInput)
	}
	if _, err := s.db.Albums().GetByID(ctx, in.AlbumID); err != nil {
		return nil, fmt.Errorf("相册 %d: %w", in.AlbumID, err)
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	photo := &models.Photo{
		Filename:       filename,
		Title:          in.Title,
		Description:    in.Description,
		Tags:           in.Tags,
		Visibility:     in.Visibility,
		OwnerID:        in.OwnerID,
		Date:           date,
		Resolution:     in.Resolution,
		Thumbnail:      in.Thumbnail,
		PerceptualHash: in.PerceptualHash,
	}
	if err := s.db.Photos().Create(ctx, in.AlbumID, photo); err != nil {
		return nil, err
	}
	s.logger.Info("照片已上传", "photoId", photo.ID, "albumId", in.AlbumID, "ownerID", in.OwnerID)
	return photo, nil
}

// --- 评论 ---

func (s *Service) ListComments(ctx context.Context, photoID int64) ([]models.Comment, error) {
	return s.db.Comments().ListByPhoto(ctx, photoID)
}

// AddComment 追加评论。照片存在且评论者不是所有者时通知所有者；
// 通知失败只记录日志，不影响评论本身。
func (s *Service) AddComment(ctx context.Context, photoID int64, viewer Viewer, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: 评论内容不能为空", database.ErrInvalidInput)
	}
	if err := s.db.Comments().Append(ctx, photoID, viewer.Username, text); err != nil {
		return err
	}
	s.notifyOwner(ctx, photoID, viewer, text)
	return nil
}

func (s *Service) notifyOwner(ctx context.Context, photoID int64, commenter Viewer, text string) {
	if s.notifier == nil {
		return
	}
	photo, err := s.db.Photos().GetByID(ctx, photoID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.Warn("无法读取被评论的照片，跳过通知", "photoId", photoID, "error", err)
		}
		return
	}
	if photo.OwnerID == commenter.OwnerID {
		return
	}

	notice := notify.CommentNotice{
		OwnerID:    photo.OwnerID,
		PhotoID:    photo.ID,
		PhotoTitle: photo.Title,
		Commenter:  commenter.Username,
		Text:       text,
	}
	if owner, err := s.db.Users().GetByOwnerID(ctx, photo.OwnerID); err == nil {
		notice.OwnerEmail = owner.Email
	} else if !errors.Is(err, database.ErrNotFound) {
		s.logger.Warn("无法读取照片所有者", "ownerID", photo.OwnerID, "error", err)
	}

	if err := s.notifier.NotifyComment(ctx, notice); err != nil {
		s.logger.Error("发送评论通知失败", "photoId", photoID, "error", err)
	}
}

// --- 搜索 ---

// Search 只返回公开照片，即使 viewer 是私有照片的所有者。
func (s *Service) Search(ctx context.Context, query string, viewer Viewer) ([]models.Photo, error) {
	q := fold(query)
	if q == "" {
		return nil, fmt.Errorf("%w: 搜索关键词不能为空", database.ErrInvalidInput)
	}
	all, err := s.db.Photos().ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := []models.Photo{}
	for _, p := range FilterPublic(all) {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	s.logger.Debug("搜索完成", "query", query, "viewer", viewer.OwnerID, "results", len(out))
	return out, nil
}

// SimilarPhotos 按感知哈希查找相似照片，规则与 Search 相同。
func (s *Service) SimilarPhotos(ctx context.Context, perceptualHash string) ([]models.Photo, error) {
	photos, err := s.db.Photos().ListByPerceptualHash(ctx, perceptualHash)
	if err != nil {
		return nil, err
	}
	return FilterPublic(photos), nil
}

// Close 在进程退出时释放存储连接。
func (s *Service) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}
