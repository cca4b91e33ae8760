package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"market_admin_v1/internal/middleware"
	"market_admin_v1/internal/model"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发访问令牌（本地调试用）",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.Int64("admin-id", 1, "管理员 ID")
	f.String("username", "admin", "用户名")
	f.String("role", "admin", "角色 admin|vendor")
	f.Int64("vendor-id", 0, "商家子账号对应的商家 ID")

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenTTL: cfg.JWT.TTL,
		Issuer:         "market-admin",
	})

	f := cmd.Flags()
	var s model.Session
	s.AdminID, _ = f.GetInt64("admin-id")
	s.Username, _ = f.GetString("username")
	s.Role, _ = f.GetString("role")
	s.VendorID, _ = f.GetInt64("vendor-id")
	if s.Role == "vendor" && s.VendorID == 0 {
		return fmt.Errorf("vendor 角色需要 --vendor-id")
	}

	token, err := middleware.GenerateAccessToken(s)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
