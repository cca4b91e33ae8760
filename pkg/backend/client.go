package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"market_admin_v1/internal/model"
)

// ==================== 远端后台客户端 ====================

// Client 远端记录服务 / 上传服务
// 响应统一为 {success, id} 或 {success, data}
type Client struct {
	http *resty.Client
}

type envelope struct {
	Success bool            `json:"success"`
	ID      int64           `json:"id"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// NewClient baseURL 形如 https://admin.example.com；token 为空时不带鉴权头
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "market-admin/1.0")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Client{http: client}
}

// Insert POST /api/{kind}
func (c *Client) Insert(ctx context.Context, kind string, fields map[string]interface{}) (int64, error) {
	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fields).
		SetResult(&env).
		SetError(&env).
		Post("/api/" + kind)
	if err := check(resp, err, &env); err != nil {
		return 0, fmt.Errorf("创建 %s 失败: %w", kind, err)
	}
	if env.ID == 0 {
		return 0, fmt.Errorf("创建 %s 失败: 响应缺少 id: %s", kind, resp.String())
	}
	return env.ID, nil
}

// Update PATCH /api/{kind}/{id}
func (c *Client) Update(ctx context.Context, kind string, id int64, fields map[string]interface{}) error {
	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fields).
		SetResult(&env).
		SetError(&env).
		Patch(fmt.Sprintf("/api/%s/%d", kind, id))
	if err := check(resp, err, &env); err != nil {
		return fmt.Errorf("更新 %s/%d 失败: %w", kind, id, err)
	}
	return nil
}

// GetByID GET /api/{kind}/{id}
func (c *Client) GetByID(ctx context.Context, kind string, id int64) (map[string]interface{}, error) {
	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env).
		Get(fmt.Sprintf("/api/%s/%d", kind, id))
	if err := check(resp, err, &env); err != nil {
		return nil, err
	}

	row := make(map[string]interface{})
	if err := json.Unmarshal(env.Data, &row); err != nil {
		return nil, fmt.Errorf("解析 %s/%d 失败: %w", kind, id, err)
	}
	return row, nil
}

// GetAll GET /api/{kind}
func (c *Client) GetAll(ctx context.Context, kind string) ([]map[string]interface{}, error) {
	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env).
		Get("/api/" + kind)
	if err := check(resp, err, &env); err != nil {
		return nil, fmt.Errorf("获取 %s 列表失败: %w", kind, err)
	}

	rows := make([]map[string]interface{}, 0)
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return nil, fmt.Errorf("解析 %s 列表失败: %w", kind, err)
		}
	}
	return rows, nil
}

// UploadBatch POST /api/uploads，一次 multipart 请求携带全部文件
// 表单字段 path 为存储前缀，files 重复出现
func (c *Client) UploadBatch(ctx context.Context, files []model.FileHandle, pathPrefix string) error {
	req := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"path": pathPrefix})

	readers := make([]io.ReadCloser, 0, len(files))
	defer func() {
		for _, rc := range readers {
			rc.Close()
		}
	}()
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("打开文件 %s 失败: %w", f.Name, err)
		}
		readers = append(readers, rc)
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		req.SetMultipartField("files", f.Name, ct, rc)
	}

	var env envelope
	resp, err := req.SetResult(&env).SetError(&env).Post("/api/uploads")
	if err := check(resp, err, &env); err != nil {
		return fmt.Errorf("批量上传失败: %w", err)
	}
	return nil
}

func check(resp *resty.Response, err error, env *envelope) error {
	if err != nil {
		return fmt.Errorf("网络请求发送失败: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return model.ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("服务端拒绝 (Status %d): %s", resp.StatusCode(), resp.String())
	}
	if !env.Success {
		if env.Message != "" {
			return fmt.Errorf("业务错误: %s", env.Message)
		}
		return fmt.Errorf("业务错误: %s", resp.String())
	}
	return nil
}
