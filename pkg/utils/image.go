package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// PreviewMaxSide 预览图最长边
const PreviewMaxSide = 200

// MakePreview 解码图片并生成缩略图，返回 JPEG data URL
func MakePreview(r io.Reader) (string, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image failed: %v", err)
	}

	thumb := imaging.Fit(src, PreviewMaxSide, PreviewMaxSide, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("encode preview failed: %v", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
