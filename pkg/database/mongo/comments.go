package mongo

import (
	"PhotoAlbum/internal/models"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// commentStore 封装了与 "comments" 集合相关的所有操作。
type commentStore struct {
	conn *conn
}

// ListByPhoto 按插入顺序返回评论。不检查照片是否存在。
func (c *commentStore) ListByPhoto(ctx context.Context, photoID int64) ([]models.Comment, error) {
	coll, err := c.conn.collection(ctx, commentsCollection)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := coll.Find(ctx, bson.M{"photoId": photoID}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, classify(err)
	}
	return comments, nil
}

func (c *commentStore) Append(ctx context.Context, photoID int64, username, text string) error {
	coll, err := c.conn.collection(ctx, commentsCollection)
	if err != nil {
		return err
	}
	comment := models.Comment{
		PhotoID:  photoID,
		Username: username,
		Text:     text,
		Date:     time.Now().UTC(),
	}
	_, err = coll.InsertOne(ctx, comment)
	return classify(err)
}
