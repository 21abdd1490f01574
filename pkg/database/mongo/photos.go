package mongo

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// photoStore 封装了与 "photos" 集合相关的所有操作。
type photoStore struct {
	conn *conn
	seq  *counterStore
}

func (p *photoStore) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	coll, err := p.conn.collection(ctx, photosCollection)
	if err != nil {
		return nil, err
	}
	var photo models.Photo
	if err := coll.FindOne(ctx, bson.M{"id": id}).Decode(&photo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, classify(err)
	}
	photo.Normalize()
	return &photo, nil
}

// ListByAlbum 返回 albums 集合包含 albumID 的照片。相册不存在时返回空列表。
func (p *photoStore) ListByAlbum(ctx context.Context, albumID int64) ([]models.Photo, error) {
	return p.find(ctx, bson.M{"albums": albumID})
}

// ListAll 不做任何过滤，可见性由调用方处理。
func (p *photoStore) ListAll(ctx context.Context) ([]models.Photo, error) {
	return p.find(ctx, bson.D{})
}

func (p *photoStore) ListByPerceptualHash(ctx context.Context, hash string) ([]models.Photo, error) {
	if hash == "" {
		return []models.Photo{}, nil
	}
	return p.find(ctx, bson.M{"perceptualHash": hash})
}

func (p *photoStore) find(ctx context.Context, filter interface{}) ([]models.Photo, error) {
	coll, err := p.conn.collection(ctx, photosCollection)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	photos := []models.Photo{}
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, classify(err)
	}
	for i := range photos {
		photos[i].Normalize()
	}
	return photos, nil
}

func (p *photoStore) Create(ctx context.Context, albumID int64, photo *models.Photo) error {
	if photo.Visibility == "" {
		photo.Visibility = models.Public
	}
	if !photo.Visibility.Valid() {
		return fmt.Errorf("%w: 未知的可见性 %q", database.ErrInvalidInput, photo.Visibility)
	}

	id, err := p.seq.NextID(ctx, database.KindPhoto)
	if err != nil {
		return fmt.Errorf("分配照片ID失败: %w", err)
	}

	coll, err := p.conn.collection(ctx, photosCollection)
	if err != nil {
		return err
	}
	photo.ID = id
	photo.Albums = []int64{albumID}
	photo.Tags = models.NormalizeTags(photo.Tags)
	if _, err := coll.InsertOne(ctx, photo); err != nil {
		photo.ID = 0
		return classify(err)
	}
	return nil
}

func (p *photoStore) Update(ctx context.Context, id int64, upd database.PhotoUpdate) (bool, error) {
	set := bson.M{"title": upd.Title, "description": upd.Description}
	if upd.Visibility != "" {
		if !upd.Visibility.Valid() {
			return false, fmt.Errorf("%w: 未知的可见性 %q", database.ErrInvalidInput, upd.Visibility)
		}
		set["visibility"] = upd.Visibility
	}
	if upd.Tags != nil {
		set["tags"] = models.NormalizeTags(upd.Tags)
	}
	return p.updateOne(ctx, id, bson.M{"$set": set})
}

// AddTag 使用 $addToSet，检查与追加在一次原子操作中完成。
func (p *photoStore) AddTag(ctx context.Context, id int64, tag string) (bool, error) {
	tag = models.NormalizeTag(tag)
	if tag == "" {
		return false, fmt.Errorf("%w: 标签不能为空", database.ErrInvalidInput)
	}
	return p.addToSet(ctx, id, "tags", tag)
}

func (p *photoStore) AddToAlbum(ctx context.Context, photoID, albumID int64) (bool, error) {
	return p.addToSet(ctx, photoID, "albums", albumID)
}

// addToSet 把 value 并入数组字段 field。旧数据里该字段可能是 null，
// $addToSet 作用于 null 会报错，这种情况改为直接写入单元素数组。
func (p *photoStore) addToSet(ctx context.Context, id int64, field string, value interface{}) (bool, error) {
	coll, err := p.conn.collection(ctx, photosCollection)
	if err != nil {
		return false, err
	}
	// 两次更新之间字段可能被并发修改，再试一次即可
	for attempt := 0; attempt < 2; attempt++ {
		res, err := coll.UpdateOne(ctx,
			bson.M{"id": id, field: bson.M{"$not": bson.M{"$type": "null"}}},
			bson.M{"$addToSet": bson.M{field: value}})
		if err != nil {
			return false, classify(err)
		}
		if res.MatchedCount == 1 {
			return res.ModifiedCount == 1, nil
		}

		res, err = coll.UpdateOne(ctx,
			bson.M{"id": id, field: bson.M{"$type": "null"}},
			bson.M{"$set": bson.M{field: bson.A{value}}})
		if err != nil {
			return false, classify(err)
		}
		if res.MatchedCount == 1 {
			return true, nil
		}
	}
	return false, database.ErrNotFound
}

// updateOne 在没有匹配记录时返回 ErrNotFound，否则报告是否有实际修改。
func (p *photoStore) updateOne(ctx context.Context, id int64, update bson.M) (bool, error) {
	coll, err := p.conn.collection(ctx, photosCollection)
	if err != nil {
		return false, err
	}
	res, err := coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return false, classify(err)
	}
	if res.MatchedCount == 0 {
		return false, database.ErrNotFound
	}
	return res.ModifiedCount == 1, nil
}
