package main

import (
	"log/slog"
	"os"

	"market_admin_v1/cmd/commands"
)

// @title Market Admin API
// @version 1.0
// @description 拍卖市场管理后台：商品发布向导、商家审核、商品状态管理
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 配置加载前的默认日志，子命令按配置重新初始化
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	commands.Execute()
}
