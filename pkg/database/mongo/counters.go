package mongo

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// counterStore 封装了与 "counters" 集合相关的所有操作。
type counterStore struct {
	conn *conn
}

// idSources 记录每种实体的ID保存在哪个集合的哪个字段，用于计数器的首次初始化。
var idSources = map[string]struct {
	collection string
	field      string
}{
	database.KindOwner: {usersCollection, "ownerID"},
	database.KindAlbum: {albumsCollection, "id"},
	database.KindPhoto: {photosCollection, "id"},
}

// NextID 使用 findOneAndUpdate + $inc 原子地递增并返回新值。
// 计数器文档不存在时先写入 {seq: 现有最大ID}，_id 的唯一性保证只有一个写入者成功，
// 随后再做一次原子递增。
func (c *counterStore) NextID(ctx context.Context, kind string) (int64, error) {
	coll, err := c.conn.collection(ctx, countersCollection)
	if err != nil {
		return 0, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	for attempt := 0; attempt < 2; attempt++ {
		var counter models.Counter
		err := coll.FindOneAndUpdate(ctx,
			bson.M{"_id": kind},
			bson.M{"$inc": bson.M{"seq": 1}},
			opts,
		).Decode(&counter)
		if err == nil {
			return counter.Seq, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return 0, classify(err)
		}
		if err := c.seed(ctx, coll, kind); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("计数器 %s 初始化后仍不存在", kind)
}

func (c *counterStore) seed(ctx context.Context, coll *mongo.Collection, kind string) error {
	maxID, err := c.maxExisting(ctx, kind)
	if err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, models.Counter{Kind: kind, Seq: maxID})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// 另一个调用者已经完成了初始化
			return nil
		}
		return classify(err)
	}
	slog.Info("计数器已初始化", "kind", kind, "seq", maxID)
	return nil
}

// maxExisting 返回 kind 对应实体当前的最大ID，没有记录时返回 0。
func (c *counterStore) maxExisting(ctx context.Context, kind string) (int64, error) {
	src, ok := idSources[kind]
	if !ok {
		return 0, nil
	}
	coll, err := c.conn.collection(ctx, src.collection)
	if err != nil {
		return 0, err
	}

	opts := options.FindOne().
		SetSort(bson.D{{Key: src.field, Value: -1}}).
		SetProjection(bson.M{src.field: 1})
	var doc bson.M
	if err := coll.FindOne(ctx, bson.M{src.field: bson.M{"$exists": true}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, classify(err)
	}

	// 旧数据可能以 int32 或 double 存储
	switch v := doc[src.field].(type) {
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%s.%s 的类型无法识别: %T", src.collection, src.field, v)
	}
}
