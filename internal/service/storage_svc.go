package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"
)

// ==================== 接口定义 ====================

// StorageProvider 对象存储
// key 为相对路径 {vendorId}/Products/{entityId}/{filename}，同名覆盖
type StorageProvider interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// ==================== 配置 ====================

type StorageConfig struct {
	Provider        string // "s3" | "gcs" | "local"
	Bucket          string
	Region          string
	AccessKey       string
	SecretKey       string
	Endpoint        string // 自定义端点 (S3 兼容存储 / GCS 模拟器)
	PublicURL       string // 公开访问前缀 (CDN 域名等，可选)
	BasePath        string // 基础路径前缀；local 模式为本地目录
	CredentialsFile string // GCS 服务账号文件 (可选)
}

// PublicPrefix 拼接公开 URL 的前缀
func (c *StorageConfig) PublicPrefix() string {
	base := strings.TrimRight(c.PublicURL, "/")
	if base == "" {
		switch c.Provider {
		case "s3":
			if c.Endpoint != "" {
				base = fmt.Sprintf("%s/%s", strings.TrimRight(c.Endpoint, "/"), c.Bucket)
			} else {
				base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
			}
		case "gcs":
			base = fmt.Sprintf("https://storage.googleapis.com/%s", c.Bucket)
		default:
			base = "http://localhost:8080/uploads"
		}
	}
	if c.Provider != "local" && c.BasePath != "" {
		base = base + "/" + strings.Trim(c.BasePath, "/")
	}
	return base
}

// ==================== 工厂方法 ====================

func NewStorageProvider(ctx context.Context, cfg *StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(ctx, cfg)
	case "gcs":
		return NewGCSStorage(ctx, cfg)
	case "local":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

func objectKey(basePath, key string) string {
	if basePath = strings.Trim(basePath, "/"); basePath != "" {
		return basePath + "/" + key
	}
	return key
}

// ==================== S3 实现 ====================

// S3Storage AWS S3 及兼容协议的存储（配置 Endpoint 时使用路径风格）
type S3Storage struct {
	client   *s3.Client
	bucket   string
	basePath string
}

func NewS3Storage(ctx context.Context, cfg *StorageConfig) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:   client,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
	}, nil
}

func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey(s.basePath, key)),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("上传S3失败: %v", err)
	}
	return nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(s.basePath, key)),
	})
	return err
}

// ==================== GCS 实现 ====================

type GCSStorage struct {
	client   *storage.Client
	bucket   string
	basePath string
}

func NewGCSStorage(ctx context.Context, cfg *StorageConfig) (*GCSStorage, error) {
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("创建GCS客户端失败: %w", err)
	}

	return &GCSStorage{
		client:   client,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
	}, nil
}

func (s *GCSStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(objectKey(s.basePath, key)).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("上传GCS失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("上传GCS失败: %w", err)
	}
	return nil
}

func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(objectKey(s.basePath, key)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// ==================== 本地存储 (开发测试用) ====================

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(cfg *StorageConfig) (*LocalStorage, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("创建本地存储目录失败: %v", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	p := filepath.Join(s.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.basePath, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("非法路径: %s", key)
	}
	return p, nil
}

func (s *LocalStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("写入本地文件失败: %v", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("写入本地文件失败: %v", err)
	}
	return ctx.Err()
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Root 本地存储根目录，供静态文件服务使用
func (s *LocalStorage) Root() string {
	return s.basePath
}
