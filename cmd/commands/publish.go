package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"market_admin_v1/internal/model"
	"market_admin_v1/internal/service"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "从命令行发布或编辑商品",
	Long: `按向导流程发布商品：写入字段、添加媒体、提交。
示例：
  market-admin publish --vendor 7 --field name=Camera --field quantity=1 \
    --field start_time=2026-01-01T10:00 --field end_time=2026-01-08T10:00 \
    --image a.png --image b.jpg`,
	RunE: runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.Int64("vendor", 0, "商家 ID（新建时必填）")
	f.Int64("listing-id", 0, "编辑已有商品")
	f.StringArray("field", nil, "字段 key=value，可重复")
	f.StringArray("image", nil, "图片文件，新建时第一张为主图")
	f.StringArray("video", nil, "视频文件")
	f.StringArray("document", nil, "文档文件")
	f.StringArray("manifest", nil, "货单文件")
	f.Int64("admin-id", 0, "操作人 ID，写入审计字段")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	flags := cmd.Flags()
	vendorID, _ := flags.GetInt64("vendor")
	listingID, _ := flags.GetInt64("listing-id")
	adminID, _ := flags.GetInt64("admin-id")
	fields, _ := flags.GetStringArray("field")

	patch, err := parseFieldFlags(fields)
	if err != nil {
		return err
	}

	session := model.Session{AdminID: adminID, Username: "cli", Role: "admin"}
	wizards := deps.Services.Wizard

	var w *service.WizardController
	if listingID > 0 {
		w, err = wizards.CreateEdit(ctx, session, listingID)
	} else {
		w, err = wizards.Create(ctx, session, vendorID)
	}
	if err != nil {
		return err
	}
	defer wizards.Discard(w.ID())

	if len(patch) > 0 {
		if err := w.UpdateFields(patch); err != nil {
			return err
		}
	}

	for _, kind := range []model.MediaKind{model.MediaKindImage, model.MediaKindVideo, model.MediaKindDocument, model.MediaKindManifest} {
		paths, _ := flags.GetStringArray(string(kind))
		if err := addLocalFiles(cmd, w, kind, paths); err != nil {
			return err
		}
	}

	result, err := wizards.Submit(ctx, w.ID())
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("第 %d 步校验失败: %s", verr.Step, formatFieldErrors(verr.Fields))
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "listing_id=%d\n", result.ListingID)
	if result.Warning != nil {
		fmt.Fprintf(out, "warning: %v\n", result.Warning)
	}
	return nil
}

// parseFieldFlags 解析 key=value
func parseFieldFlags(values []string) (model.DraftPatch, error) {
	patch := make(model.DraftPatch, len(values))
	for _, kv := range values {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("字段格式应为 key=value: %q", kv)
		}
		patch[strings.TrimSpace(key)] = value
	}
	return patch, nil
}

func addLocalFiles(cmd *cobra.Command, w *service.WizardController, kind model.MediaKind, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	files := make([]model.FileHandle, 0, len(paths))
	for _, p := range paths {
		f, err := model.DiskFile(p, filepath.Base(p), "")
		if err != nil {
			return fmt.Errorf("读取文件失败: %w", err)
		}
		files = append(files, f)
	}

	result, err := w.AddFiles(kind, files)
	if err != nil {
		return err
	}
	for _, msg := range result.Messages() {
		fmt.Fprintf(cmd.ErrOrStderr(), "skip: %s\n", msg)
	}
	return nil
}

func formatFieldErrors(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
