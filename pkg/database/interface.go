package database

import (
	"PhotoAlbum/internal/models"
	"context"
)

// 计数器文档的 _id，每种实体一个。
const (
	KindOwner = "ownerID"
	KindAlbum = "albumID"
	KindPhoto = "photoID"
)

// Store 是一个顶层接口，它组合了所有特定数据模型的存储接口。
// 连接在整个进程内共享，由 Close 在进程退出时释放。
type Store interface {
	Albums() AlbumStore
	Photos() PhotoStore
	Comments() CommentStore
	Users() UserStore
	Sequences() Sequencer
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// Sequencer 为每种实体分配单调递增且不重复的整数ID。
type Sequencer interface {
	// NextID 原子地递增 kind 的计数器并返回新值。
	// 计数器不存在时，先用该实体已有的最大ID初始化一次。
	NextID(ctx context.Context, kind string) (int64, error)
}

// AlbumStore 定义了所有与 Album 模型相关的数据库操作。
type AlbumStore interface {
	GetAll(ctx context.Context) ([]models.Album, error)
	GetByID(ctx context.Context, id int64) (*models.Album, error)
	// GetByName 区分大小写，名称重复时返回第一个找到的相册。
	GetByName(ctx context.Context, name string) (*models.Album, error)
	Create(ctx context.Context, name string, ownerID int64) (*models.Album, error)
}

// PhotoUpdate 是一次部分更新。空的 Visibility 表示不修改；
// Tags 为 nil 表示不修改，否则整体替换。
type PhotoUpdate struct {
	Title       string
	Description string
	Visibility  models.Visibility
	Tags        []string
}

// PhotoStore 定义了所有与 Photo 模型相关的数据库操作。
// 写入路径负责标签的规范化（去空白、转小写），调用方无法绕过。
type PhotoStore interface {
	GetByID(ctx context.Context, id int64) (*models.Photo, error)
	ListByAlbum(ctx context.Context, albumID int64) ([]models.Photo, error)
	ListAll(ctx context.Context) ([]models.Photo, error)
	ListByPerceptualHash(ctx context.Context, hash string) ([]models.Photo, error)
	// Create 分配ID，并将 Albums 设置为 [albumID]。
	Create(ctx context.Context, albumID int64, photo *models.Photo) error
	// Update 返回是否恰好修改了一条记录；id 不存在时返回 ErrNotFound。
	Update(ctx context.Context, id int64, upd PhotoUpdate) (bool, error)
	// AddTag 是幂等的：标签已存在时返回 false 且不写入。
	AddTag(ctx context.Context, id int64, tag string) (bool, error)
	// AddToAlbum 是幂等的集合并操作。
	AddToAlbum(ctx context.Context, photoID, albumID int64) (bool, error)
}

// CommentStore 只支持追加和按照片列出，评论不可编辑或删除。
type CommentStore interface {
	ListByPhoto(ctx context.Context, photoID int64) ([]models.Comment, error)
	Append(ctx context.Context, photoID int64, username, text string) error
}

type UserStore interface {
	// Create 在用户名已存在时返回 ErrDuplicateName。
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByOwnerID(ctx context.Context, ownerID int64) (*models.User, error)
}
