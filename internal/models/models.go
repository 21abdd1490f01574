package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visibility 控制非所有者能否在列表中看到照片。
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Valid 报告 v 是否为已知的可见性取值。
func (v Visibility) Valid() bool {
	return v == Public || v == Private
}

// User 对应 users 集合中的一个文档。
// OwnerID 在注册时分配一次，之后作为所有其他集合的外键，永不复用。
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-" yaml:"-"`
	OwnerID      int64              `bson:"ownerID" json:"ownerID" yaml:"ownerID"`
	Username     string             `bson:"username" json:"username" yaml:"username"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty" yaml:"email,omitempty"`
	PasswordHash string             `bson:"passwordHash" json:"-" yaml:"-"`
	Salt         string             `bson:"salt" json:"-" yaml:"-"`
}

// Album 是一个相册。Name 不保证唯一，按名称查找时返回第一个匹配项。
type Album struct {
	ID      int64  `bson:"id" json:"id" yaml:"id"`
	Name    string `bson:"name" json:"name" yaml:"name"`
	OwnerID int64  `bson:"ownerID" json:"ownerID" yaml:"ownerID"`
}

// Photo 对应 photos 集合中的一个文档。
type Photo struct {
	ID          int64      `bson:"id" json:"id" yaml:"id"`
	Filename    string     `bson:"filename" json:"filename" yaml:"filename"`
	Title       string     `bson:"title" json:"title" yaml:"title"`
	Description string     `bson:"description" json:"description" yaml:"description"`
	Tags        []string   `bson:"tags" json:"tags" yaml:"tags"`
	Visibility  Visibility `bson:"visibility" json:"visibility" yaml:"visibility"`
	OwnerID     int64      `bson:"ownerID" json:"ownerID" yaml:"ownerID"`
	// Albums 是照片所属相册的ID集合，创建后至少包含一个元素。
	Albums     []int64   `bson:"albums" json:"albums" yaml:"albums"`
	Date       time.Time `bson:"date" json:"date" yaml:"date"`
	Resolution string    `bson:"resolution" json:"resolution" yaml:"resolution"`

	// 上传时由 imageinfo 计算，旧数据中可能不存在。
	Thumbnail      string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	PerceptualHash string `bson:"perceptualHash,omitempty" json:"perceptualHash,omitempty" yaml:"perceptualHash,omitempty"`
}

// Normalize 在读取后补齐可选字段，使上层逻辑不必区分“字段缺失”和“空集合”。
func (p *Photo) Normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Albums == nil {
		p.Albums = []int64{}
	}
	if p.Visibility == "" {
		p.Visibility = Public
	}
}

// InAlbum 报告照片是否属于 albumID。
func (p *Photo) InAlbum(albumID int64) bool {
	for _, id := range p.Albums {
		if id == albumID {
			return true
		}
	}
	return false
}

// HasTag 按精确字符串比较 tag 是否已存在。调用方应先规范化 tag。
func (p *Photo) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Comment 没有业务ID，按插入顺序即时间顺序排列。
type Comment struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"-" yaml:"-"`
	PhotoID  int64              `bson:"photoId" json:"photoId" yaml:"photoId"`
	Username string             `bson:"username" json:"username" yaml:"username"`
	Text     string             `bson:"text" json:"text" yaml:"text"`
	Date     time.Time          `bson:"date" json:"date" yaml:"date"`
}

// Counter 是每种实体的序列计数器，Seq 保存最后一次发出的值。
type Counter struct {
	Kind string `bson:"_id" json:"kind" yaml:"kind"`
	Seq  int64  `bson:"seq" json:"seq" yaml:"seq"`
}

// NormalizeTag 去除首尾空白并转为小写。
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags 规范化每个标签，丢弃空标签并去重，保持首次出现的顺序。
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = NormalizeTag(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
