package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewStorageProvider_Local(t *testing.T) {
	tempDir := t.TempDir()

	provider, err := NewStorageProvider(context.Background(), &StorageConfig{
		Provider: "local",
		BasePath: tempDir,
	})

	if err != nil {
		t.Fatalf("NewStorageProvider() error = %v", err)
	}

	if provider == nil {
		t.Fatal("NewStorageProvider() 返回 nil")
	}
}

func TestNewStorageProvider_InvalidProvider(t *testing.T) {
	_, err := NewStorageProvider(context.Background(), &StorageConfig{
		Provider: "invalid",
	})

	if err == nil {
		t.Error("期望返回错误，但未返回")
	}
}

func TestLocalStorage_PutAndDelete(t *testing.T) {
	tempDir := t.TempDir()

	provider, err := NewLocalStorage(&StorageConfig{BasePath: tempDir})
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}

	ctx := context.Background()
	key := "7/Products/101/a.png"

	if err := provider.Put(ctx, key, strings.NewReader("Hello, World!"), 13, "image/png"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tempDir, "7", "Products", "101", "a.png"))
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}
	if string(data) != "Hello, World!" {
		t.Errorf("内容 = %q", string(data))
	}

	// 同名覆盖
	if err := provider.Put(ctx, key, strings.NewReader("v2"), 2, "image/png"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(tempDir, "7", "Products", "101", "a.png"))
	if string(data) != "v2" {
		t.Errorf("覆盖后内容 = %q, want v2", string(data))
	}

	if err := provider.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := provider.Delete(ctx, key); err != nil {
		t.Errorf("重复删除应忽略, error = %v", err)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	provider, _ := NewLocalStorage(&StorageConfig{BasePath: t.TempDir()})

	err := provider.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "")
	if err == nil {
		t.Error("越界路径应返回错误")
	}
}

func TestStorageConfig_PublicPrefix(t *testing.T) {
	tests := []struct {
		name string
		cfg  StorageConfig
		want string
	}{
		{"s3默认", StorageConfig{Provider: "s3", Bucket: "media", Region: "us-east-1"}, "https://media.s3.us-east-1.amazonaws.com"},
		{"s3兼容端点", StorageConfig{Provider: "s3", Bucket: "media", Endpoint: "http://minio:9000/"}, "http://minio:9000/media"},
		{"gcs", StorageConfig{Provider: "gcs", Bucket: "media", BasePath: "/market/"}, "https://storage.googleapis.com/media/market"},
		{"CDN", StorageConfig{Provider: "s3", PublicURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
		{"local", StorageConfig{Provider: "local", BasePath: "./uploads"}, "http://localhost:8080/uploads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.PublicPrefix(); got != tt.want {
				t.Errorf("PublicPrefix() = %s, want %s", got, tt.want)
			}
		})
	}
}
