package catalog

import (
	"PhotoAlbum/internal/models"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// fold 把文本转成 ASCII 小写，使 "Été" 和 "ete" 可以互相匹配。
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}

// matches 在标题、描述和标签中做不区分大小写和重音的子串匹配。
func matches(p models.Photo, foldedQuery string) bool {
	if strings.Contains(fold(p.Title), foldedQuery) || strings.Contains(fold(p.Description), foldedQuery) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(fold(tag), foldedQuery) {
			return true
		}
	}
	return false
}
