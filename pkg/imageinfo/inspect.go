// Package imageinfo 从上传的图片中提取照片记录需要的元数据。
// 文件本身不在这里保存。
package imageinfo

import (
	"fmt"
	"image"
	"io"

	// 匿名导入 image解码器
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Info 是一次上传的检测结果。
type Info struct {
	Format         string
	Resolution     string
	Thumbnail      string
	PerceptualHash string
}

// Inspect 解码图片并计算分辨率、缩略图和感知哈希。
func Inspect(r io.Reader, thumbWidth, thumbHeight int) (*Info, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("无法解码图片: %w", err)
	}

	thumb, err := CreateBase64(img, thumbWidth, thumbHeight)
	if err != nil {
		return nil, fmt.Errorf("生成缩略图失败: %w", err)
	}

	b := img.Bounds()
	return &Info{
		Format:         format,
		Resolution:     fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		Thumbnail:      thumb,
		PerceptualHash: PerceptualHash(img),
	}, nil
}

// HashReader 只计算感知哈希，用于以图搜图。
func HashReader(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("无法解码图片: %w", err)
	}
	return PerceptualHash(img), nil
}
