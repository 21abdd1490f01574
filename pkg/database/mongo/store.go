package mongo

import (
	"PhotoAlbum/config"
	"PhotoAlbum/pkg/database"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/singleflight"
)

const (
	usersCollection    = "users"
	albumsCollection   = "albums"
	photosCollection   = "photos"
	commentsCollection = "comments"
	countersCollection = "counters"
)

// Store 是 database.Store 接口的MongoDB实现。
type Store struct {
	conn     *conn
	albums   *albumStore
	photos   *photoStore
	comments *commentStore
	users    *userStore
	counters *counterStore
}

// 确保 Store 实现了 database.Store 接口 (编译时检查)
var _ database.Store = (*Store)(nil)

// conn 是进程内共享的连接句柄。第一次使用时才建立连接，
// 连接失败不会被缓存，下一次调用会重试。同一时刻只有一次连接尝试，
// 并发的调用者共享它的结果，各自按自己的 ctx 放弃等待。
type conn struct {
	uri     string
	name    string
	timeout time.Duration

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
	dial   singleflight.Group
}

func (c *conn) database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	db := c.db
	c.mu.Unlock()
	if db != nil {
		return db, nil
	}

	ch := c.dial.DoChan("connect", func() (interface{}, error) {
		return c.connect()
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*mongo.Database), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, ctx.Err())
	}
}

// connect 在锁外完成网络 I/O，只在写入结果时持有 mu。
func (c *conn) connect() (*mongo.Database, error) {
	c.mu.Lock()
	if c.db != nil {
		db := c.db
		c.mu.Unlock()
		return db, nil
	}
	c.mu.Unlock()

	slog.Info("正在连接到 MongoDB...", "database", c.name)
	clientCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	client, err := mongo.Connect(clientCtx, options.Client().ApplyURI(c.uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	if err := client.Ping(clientCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	slog.Info("MongoDB 连接成功")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = client
	c.db = client.Database(c.name)
	return c.db, nil
}

func (c *conn) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := c.database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

func (c *conn) close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	c.db = nil
	return err
}

// NewStore 创建一个新的 Store 实例。此时不会建立连接。
func NewStore(cfg config.DatabaseConfig) *Store {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &conn{uri: cfg.URI, name: cfg.Name, timeout: timeout}
	counters := &counterStore{conn: c}

	return &Store{
		conn:     c,
		albums:   &albumStore{conn: c, seq: counters},
		photos:   &photoStore{conn: c, seq: counters},
		comments: &commentStore{conn: c},
		users:    &userStore{conn: c},
		counters: counters,
	}
}

func (s *Store) Albums() database.AlbumStore {
	return s.albums
}

func (s *Store) Photos() database.PhotoStore {
	return s.photos
}

func (s *Store) Comments() database.CommentStore {
	return s.comments
}

func (s *Store) Users() database.UserStore {
	return s.users
}

func (s *Store) Sequences() database.Sequencer {
	return s.counters
}

// Close 在进程退出时释放连接。
func (s *Store) Close(ctx context.Context) error {
	return s.conn.close(ctx)
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	slog.Info("正在确保数据库索引存在...")
	db, err := s.conn.database(ctx)
	if err != nil {
		return err
	}

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_username_unique"),
			},
			{
				Keys:    bson.D{{Key: "ownerID", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_ownerid_unique"),
			},
		},
		albumsCollection: {
			{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_id_unique"),
			},
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName("idx_name"),
			},
		},
		photosCollection: {
			{
				Keys:    bson.D{{Key: "id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_id_unique"),
			},
			{
				Keys:    bson.D{{Key: "albums", Value: 1}},
				Options: options.Index().SetName("idx_albums"),
			},
			{
				Keys:    bson.D{{Key: "perceptualHash", Value: 1}},
				Options: options.Index().SetName("idx_phash").SetSparse(true),
			},
		},
		commentsCollection: {
			{
				Keys:    bson.D{{Key: "photoId", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetName("idx_photoid_date"),
			},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			slog.Error("创建索引失败", "collection", name, "error", err)
			return classify(err)
		}
		slog.Info("集合索引已验证/创建。", "collection", name)
	}
	return nil
}

// DropAllCollections 删除当前数据库中的所有已知集合，主要用于测试环境的重置。
func (s *Store) DropAllCollections(ctx context.Context) error {
	db, err := s.conn.database(ctx)
	if err != nil {
		return err
	}
	slog.Warn("正在删除所有集合...", "database", db.Name())
	for _, name := range []string{usersCollection, albumsCollection, photosCollection, commentsCollection, countersCollection} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			slog.Error("删除集合失败", "collection", name, "error", err)
			return classify(err)
		}
	}
	slog.Info("所有集合已成功删除。")
	return nil
}

// classify 把驱动层的连接类错误映射为 ErrStoreUnavailable，其他错误原样返回。
func classify(err error) error {
	if err == nil || errors.Is(err, database.ErrStoreUnavailable) {
		return err
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	return err
}
