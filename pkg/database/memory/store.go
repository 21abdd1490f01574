// Package memory 提供 database.Store 的内存实现，用于测试和 database.type=memory。
// 所有操作在一把互斥锁下完成，因此与 MongoDB 后端的单文档原子性等价。
package memory

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type Store struct {
	mu       sync.Mutex
	users    []models.User
	albums   []models.Album
	photos   map[int64]*models.Photo
	comments []models.Comment
	counters map[string]int64
	now      func() time.Time
}

var _ database.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		photos:   make(map[int64]*models.Photo),
		counters: make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Albums() database.AlbumStore         { return (*albumStore)(s) }
func (s *Store) Photos() database.PhotoStore         { return (*photoStore)(s) }
func (s *Store) Comments() database.CommentStore     { return (*commentStore)(s) }
func (s *Store) Users() database.UserStore           { return (*userStore)(s) }
func (s *Store) Sequences() database.Sequencer       { return (*sequencer)(s) }
func (s *Store) EnsureIndexes(context.Context) error { return nil }
func (s *Store) Close(context.Context) error         { return nil }

// SeedAlbum 和 SeedPhoto 直接写入带有ID的记录，模拟计数器出现之前已存在的数据。
func (s *Store) SeedAlbum(a models.Album) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albums = append(s.albums, a)
}

func (s *Store) SeedPhoto(p models.Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := clonePhoto(&p)
	s.photos[p.ID] = &cp
}

func (s *Store) SeedUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
}

// --- sequencer ---

type sequencer Store

func (q *sequencer) NextID(ctx context.Context, kind string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(q)
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.counters[kind]
	if !ok {
		seq = s.maxExistingLocked(kind)
	}
	seq++
	s.counters[kind] = seq
	return seq, nil
}

func (s *Store) maxExistingLocked(kind string) int64 {
	var max int64
	switch kind {
	case database.KindOwner:
		for _, u := range s.users {
			if u.OwnerID > max {
				max = u.OwnerID
			}
		}
	case database.KindAlbum:
		for _, a := range s.albums {
			if a.ID > max {
				max = a.ID
			}
		}
	case database.KindPhoto:
		for id := range s.photos {
			if id > max {
				max = id
			}
		}
	}
	return max
}

// --- albums ---

type albumStore Store

func (a *albumStore) GetAll(ctx context.Context) ([]models.Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(a)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Album, len(s.albums))
	copy(out, s.albums)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *albumStore) GetByID(ctx context.Context, id int64) (*models.Album, error) {
	return a.first(ctx, func(al models.Album) bool { return al.ID == id })
}

func (a *albumStore) GetByName(ctx context.Context, name string) (*models.Album, error) {
	return a.first(ctx, func(al models.Album) bool { return al.Name == name })
}

func (a *albumStore) first(ctx context.Context, match func(models.Album) bool) (*models.Album, error) {
	all, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, al := range all {
		if match(al) {
			found := al
			return &found, nil
		}
	}
	return nil, database.ErrNotFound
}

func (a *albumStore) Create(ctx context.Context, name string, ownerID int64) (*models.Album, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: 相册名称不能为空", database.ErrInvalidInput)
	}
	s := (*Store)(a)
	id, err := s.Sequences().NextID(ctx, database.KindAlbum)
	if err != nil {
		return nil, fmt.Errorf("分配相册ID失败: %w", err)
	}

	album := models.Album{ID: id, Name: name, OwnerID: ownerID}
	s.mu.Lock()
	s.albums = append(s.albums, album)
	s.mu.Unlock()
	return &album, nil
}

// --- photos ---

type photoStore Store

func clonePhoto(p *models.Photo) models.Photo {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Albums = append([]int64(nil), p.Albums...)
	cp.Normalize()
	return cp
}

func (p *photoStore) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(p)
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.photos[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := clonePhoto(stored)
	return &cp, nil
}

func (p *photoStore) ListByAlbum(ctx context.Context, albumID int64) ([]models.Photo, error) {
	return p.filter(ctx, func(ph *models.Photo) bool { return ph.InAlbum(albumID) })
}

func (p *photoStore) ListAll(ctx context.Context) ([]models.Photo, error) {
	return p.filter(ctx, func(*models.Photo) bool { return true })
}

func (p *photoStore) ListByPerceptualHash(ctx context.Context, hash string) ([]models.Photo, error) {
	if hash == "" {
		return []models.Photo{}, nil
	}
	return p.filter(ctx, func(ph *models.Photo) bool { return ph.PerceptualHash == hash })
}

func (p *photoStore) filter(ctx context.Context, keep func(*models.Photo) bool) ([]models.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(p)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Photo{}
	for _, ph := range s.photos {
		if keep(ph) {
			out = append(out, clonePhoto(ph))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *photoStore) Create(ctx context.Context, albumID int64, photo *models.Photo) error {
	if photo.Visibility == "" {
		photo.Visibility = models.Public
	}
	if !photo.Visibility.Valid() {
		return fmt.Errorf("%w: 未知的可见性 %q", database.ErrInvalidInput, photo.Visibility)
	}
	s := (*Store)(p)
	id, err := s.Sequences().NextID(ctx, database.KindPhoto)
	if err != nil {
		return fmt.Errorf("分配照片ID失败: %w", err)
	}

	photo.ID = id
	photo.Albums = []int64{albumID}
	photo.Tags = models.NormalizeTags(photo.Tags)

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := clonePhoto(photo)
	s.photos[id] = &cp
	return nil
}

func (p *photoStore) Update(ctx context.Context, id int64, upd database.PhotoUpdate) (bool, error) {
	if upd.Visibility != "" && !upd.Visibility.Valid() {
		return false, fmt.Errorf("%w: 未知的可见性 %q", database.ErrInvalidInput, upd.Visibility)
	}
	return p.mutate(ctx, id, func(ph *models.Photo) bool {
		changed := ph.Title != upd.Title || ph.Description != upd.Description
		ph.Title = upd.Title
		ph.Description = upd.Description
		if upd.Visibility != "" && ph.Visibility != upd.Visibility {
			ph.Visibility = upd.Visibility
			changed = true
		}
		if upd.Tags != nil {
			tags := models.NormalizeTags(upd.Tags)
			if !equalStrings(ph.Tags, tags) {
				ph.Tags = tags
				changed = true
			}
		}
		return changed
	})
}

func (p *photoStore) AddTag(ctx context.Context, id int64, tag string) (bool, error) {
	tag = models.NormalizeTag(tag)
	if tag == "" {
		return false, fmt.Errorf("%w: 标签不能为空", database.ErrInvalidInput)
	}
	return p.mutate(ctx, id, func(ph *models.Photo) bool {
		if ph.HasTag(tag) {
			return false
		}
		ph.Tags = append(ph.Tags, tag)
		return true
	})
}

func (p *photoStore) AddToAlbum(ctx context.Context, photoID, albumID int64) (bool, error) {
	return p.mutate(ctx, photoID, func(ph *models.Photo) bool {
		if ph.InAlbum(albumID) {
			return false
		}
		ph.Albums = append(ph.Albums, albumID)
		return true
	})
}

func (p *photoStore) mutate(ctx context.Context, id int64, fn func(*models.Photo) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(p)
	s.mu.Lock()
	defer s.mu.Unlock()

	ph, ok := s.photos[id]
	if !ok {
		return false, database.ErrNotFound
	}
	ph.Normalize()
	return fn(ph), nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- comments ---

type commentStore Store

func (c *commentStore) ListByPhoto(ctx context.Context, photoID int64) ([]models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Comment{}
	for _, cm := range s.comments {
		if cm.PhotoID == photoID {
			out = append(out, cm)
		}
	}
	return out, nil
}

func (c *commentStore) Append(ctx context.Context, photoID int64, username, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments = append(s.comments, models.Comment{
		PhotoID:  photoID,
		Username: username,
		Text:     text,
		Date:     s.now(),
	})
	return nil
}

// --- users ---

type userStore Store

func (u *userStore) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(u)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("%w: 用户名 %s 已存在", database.ErrDuplicateName, user.Username)
		}
	}
	s.users = append(s.users, *user)
	return nil
}

func (u *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.first(ctx, func(usr models.User) bool { return usr.Username == username })
}

func (u *userStore) GetByOwnerID(ctx context.Context, ownerID int64) (*models.User, error) {
	return u.first(ctx, func(usr models.User) bool { return usr.OwnerID == ownerID })
}

func (u *userStore) first(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	s := (*Store)(u)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, usr := range s.users {
		if match(usr) {
			found := usr
			return &found, nil
		}
	}
	return nil, database.ErrNotFound
}
