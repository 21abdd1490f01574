// Package backend 根据配置选择存储实现。
package backend

import (
	"PhotoAlbum/config"
	"PhotoAlbum/pkg/database"
	"PhotoAlbum/pkg/database/memory"
	"PhotoAlbum/pkg/database/mongo"
	"fmt"
	"strings"
)

// Open 返回配置指定的存储。mongo 后端在第一次使用时才建立连接。
func Open(cfg config.DatabaseConfig) (database.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "mongo", "mongodb":
		if cfg.URI == "" {
			return nil, fmt.Errorf("%w: 缺少 database.uri", database.ErrInvalidInput)
		}
		return mongo.NewStore(cfg), nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: 未知的存储类型 %q", database.ErrInvalidInput, cfg.Type)
	}
}
