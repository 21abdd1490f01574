package catalog

import "PhotoAlbum/internal/models"

// Viewer 是身份协作者传入的当前用户。核心层不对其做任何认证。
type Viewer struct {
	OwnerID  int64  `json:"ownerID"`
	Username string `json:"username"`
}

// CanView 报告 viewer 是否可以看到照片：公开，或者 viewer 是所有者。
func CanView(p models.Photo, viewerOwnerID int64) bool {
	return p.Visibility != models.Private || p.OwnerID == viewerOwnerID
}

// FilterVisible 是列表场景的可见性规则，静默去掉 viewer 看不到的照片。
func FilterVisible(photos []models.Photo, viewerOwnerID int64) []models.Photo {
	out := make([]models.Photo, 0, len(photos))
	for _, p := range photos {
		if CanView(p, viewerOwnerID) {
			out = append(out, p)
		}
	}
	return out
}

// FilterPublic 是搜索场景的规则，只保留公开照片，所有者本人也不例外。
func FilterPublic(photos []models.Photo) []models.Photo {
	out := make([]models.Photo, 0, len(photos))
	for _, p := range photos {
		if p.Visibility == models.Public {
			out = append(out, p)
		}
	}
	return out
}
