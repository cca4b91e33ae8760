package model

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// ==================== 媒体类型 ====================

type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
	MediaKindManifest MediaKind = "manifest"
)

func ParseMediaKind(s string) (MediaKind, error) {
	switch k := MediaKind(strings.ToLower(strings.TrimSpace(s))); k {
	case MediaKindImage, MediaKindVideo, MediaKindDocument, MediaKindManifest:
		return k, nil
	}
	return "", fmt.Errorf("未知的媒体类型: %s", s)
}

// FileHandle 待上传文件
// Open 每次调用返回新的读取器，上传期间字节归上传方所有
type FileHandle struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// MemoryFile 内存文件
func MemoryFile(name, contentType string, data []byte) FileHandle {
	return FileHandle{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// DiskFile 磁盘文件，name 为上传后的对象文件名
func DiskFile(path, name, contentType string) (FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileHandle{}, err
	}
	return FileHandle{
		Name:        name,
		ContentType: contentType,
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// ReadAll 读取全部内容
func (f FileHandle) ReadAll() ([]byte, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("文件不可读: %s", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// MediaAsset 向导中已接受的媒体
// 图片序列中 Position 0 为主图
type MediaAsset struct {
	ID       string     `json:"id"`
	File     FileHandle `json:"-"`
	Name     string     `json:"name"`
	Kind     MediaKind  `json:"kind"`
	Preview  string     `json:"preview,omitempty"`
	Size     int64      `json:"size"`
	Position int        `json:"position"`
	IsMain   bool       `json:"is_main"`
}

// ==================== 存储位置 ====================

// StorageLocation 由商家与实体 ID 推导出的存储路径，不单独持久化
type StorageLocation struct {
	VendorID   int64
	EntityKind string
	EntityID   string
}

func NewProductLocation(vendorID, entityID int64) StorageLocation {
	return StorageLocation{
		VendorID:   vendorID,
		EntityKind: StorageKindProducts,
		EntityID:   strconv.FormatInt(entityID, 10),
	}
}

// Prefix {vendorId}/{entityKind}/{entityId}
func (l StorageLocation) Prefix() string {
	return fmt.Sprintf("%d/%s/%s", l.VendorID, l.EntityKind, l.EntityID)
}

// ==================== 路径字段 ====================

// MediaPaths 记录上的三个媒体路径字段，顺序有意义（第一张图为主图）
type MediaPaths struct {
	Images   []string
	Videos   []string
	Manifest string
}

func (p MediaPaths) Fields() map[string]interface{} {
	return map[string]interface{}{
		"image_path":   JoinPaths(p.Images),
		"video_path":   JoinPaths(p.Videos),
		"manifest_url": p.Manifest,
	}
}

func (p MediaPaths) Empty() bool {
	return len(p.Images) == 0 && len(p.Videos) == 0 && p.Manifest == ""
}

// Merge 保留的旧 URL 在前，新上传的在后；新清单非空时覆盖旧清单
func (p MediaPaths) Merge(uploaded MediaPaths) MediaPaths {
	out := MediaPaths{
		Images:   append(append([]string{}, p.Images...), uploaded.Images...),
		Videos:   append(append([]string{}, p.Videos...), uploaded.Videos...),
		Manifest: p.Manifest,
	}
	if uploaded.Manifest != "" {
		out.Manifest = uploaded.Manifest
	}
	return out
}

// WithMainImage 将指定图片移到第一位，其余保持原顺序；不在列表中时原样返回
func (p MediaPaths) WithMainImage(url string) MediaPaths {
	i := slices.Index(p.Images, url)
	if i <= 0 {
		return p
	}
	images := make([]string, 0, len(p.Images))
	images = append(images, url)
	images = append(images, p.Images[:i]...)
	images = append(images, p.Images[i+1:]...)
	p.Images = images
	return p
}

// PathSeparator 路径字段内多个 URL 的分隔符，文件名中不能出现
const PathSeparator = ","

func JoinPaths(urls []string) string {
	return strings.Join(urls, PathSeparator)
}

func SplitPaths(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, PathSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
