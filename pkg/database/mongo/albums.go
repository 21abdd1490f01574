package mongo

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// albumStore 封装了与 "albums" 集合相关的所有操作。
type albumStore struct {
	conn *conn
	seq  *counterStore
}

// GetAll 按ID升序返回所有相册。
func (a *albumStore) GetAll(ctx context.Context) ([]models.Album, error) {
	coll, err := a.conn.collection(ctx, albumsCollection)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	albums := []models.Album{}
	if err = cursor.All(ctx, &albums); err != nil {
		return nil, classify(err)
	}
	return albums, nil
}

func (a *albumStore) GetByID(ctx context.Context, id int64) (*models.Album, error) {
	return a.findOne(ctx, bson.M{"id": id})
}

// GetByName 按名称精确查找，名称重复时取ID最小的一个。
func (a *albumStore) GetByName(ctx context.Context, name string) (*models.Album, error) {
	return a.findOne(ctx, bson.M{"name": name})
}

func (a *albumStore) findOne(ctx context.Context, filter bson.M) (*models.Album, error) {
	coll, err := a.conn.collection(ctx, albumsCollection)
	if err != nil {
		return nil, err
	}
	var album models.Album
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: 1}})
	if err := coll.FindOne(ctx, filter, opts).Decode(&album); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, classify(err)
	}
	return &album, nil
}

func (a *albumStore) Create(ctx context.Context, name string, ownerID int64) (*models.Album, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: 相册名称不能为空", database.ErrInvalidInput)
	}

	id, err := a.seq.NextID(ctx, database.KindAlbum)
	if err != nil {
		return nil, fmt.Errorf("分配相册ID失败: %w", err)
	}

	coll, err := a.conn.collection(ctx, albumsCollection)
	if err != nil {
		return nil, err
	}
	album := &models.Album{ID: id, Name: name, OwnerID: ownerID}
	if _, err := coll.InsertOne(ctx, album); err != nil {
		return nil, classify(err)
	}
	return album, nil
}
