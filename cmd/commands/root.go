package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"market_admin_v1/internal/config"
	"market_admin_v1/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "market-admin",
	Short: "拍卖市场管理后台",
	Long:  `商品发布向导、商家审核与商品状态管理。serve 启动 HTTP 服务，其余子命令直接操作记录。`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 ./config.yaml）")
	rootCmd.PersistentFlags().String("log-level", "info", "日志级别 debug|info|warn|error")
	rootCmd.PersistentFlags().String("log-format", "text", "日志格式 text|json")
	rootCmd.PersistentFlags().String("db-driver", "sqlite", "数据库驱动 postgres|sqlite")
	rootCmd.PersistentFlags().String("db-dsn", ".artifacts/market.db", "数据库连接串")
	rootCmd.PersistentFlags().String("backend-mode", "local", "记录服务 local|remote")
	rootCmd.PersistentFlags().String("backend-url", "", "远端后台地址（backend-mode=remote）")
	rootCmd.PersistentFlags().String("storage-provider", "local", "媒体存储 s3|gcs|local")
	rootCmd.PersistentFlags().String("storage-base-path", "", "存储基础路径；local 为本地目录")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("database.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	viper.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("db-dsn"))
	viper.BindPFlag("backend.mode", rootCmd.PersistentFlags().Lookup("backend-mode"))
	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend-url"))
	viper.BindPFlag("storage.provider", rootCmd.PersistentFlags().Lookup("storage-provider"))
	viper.BindPFlag("storage.base-path", rootCmd.PersistentFlags().Lookup("storage-base-path"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// loadConfig 读取并校验配置，同时按配置初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
