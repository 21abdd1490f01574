package imageinfo

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/ajdnik/imghash"
	"github.com/disintegration/imaging"
)

const (
	defaultThumbWidth  = 320
	defaultThumbHeight = 240
)

// CreateBase64 生成 JPEG 缩略图并编码为 data URL。
func CreateBase64(srcImage image.Image, width, height int) (string, error) {
	if width <= 0 {
		width = defaultThumbWidth
	}
	if height <= 0 {
		height = defaultThumbHeight
	}
	thumbImage := imaging.Thumbnail(srcImage, width, height, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, thumbImage, &jpeg.Options{Quality: 80}); err != nil {
		return "", err
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// PerceptualHash 从已解码的 image.Image 对象计算感知哈希
func PerceptualHash(img image.Image) string {
	phasher := imghash.NewPHash()
	return fmt.Sprintf("%d", phasher.Calculate(img))
}
