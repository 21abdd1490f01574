package mongo

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userStore struct {
	conn *conn
}

// Create 依赖 username 上的唯一索引拒绝重复用户名。
func (u *userStore) Create(ctx context.Context, user *models.User) error {
	coll, err := u.conn.collection(ctx, usersCollection)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: 用户名 %s 已存在", database.ErrDuplicateName, user.Username)
		}
		return classify(err)
	}
	return nil
}

func (u *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.findOne(ctx, bson.M{"username": username})
}

func (u *userStore) GetByOwnerID(ctx context.Context, ownerID int64) (*models.User, error) {
	return u.findOne(ctx, bson.M{"ownerID": ownerID})
}

func (u *userStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	coll, err := u.conn.collection(ctx, usersCollection)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, classify(err)
	}
	return &user, nil
}
