// Package database 提供数据库连接
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dumeirei/incentive-backend/internal/common/config"
	"github.com/dumeirei/incentive-backend/internal/common/logger"
)

// pingTimeout 启动时连通性检查超时
const pingTimeout = 5 * time.Second

// Init 按配置打开数据库并设置连接池，SQL 日志写入全局 zap 日志器
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   NewGormLogger(logger.GetLogger().Named("gorm"), cfg),
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("数据库不可用: %w", err)
	}
	return conn, nil
}

// openDialector 选择驱动，sqlite 仅用于本地开发，Name 为文件路径
func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.Name), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// AutoMigrate 自动建表，生产环境应使用迁移脚本
func AutoMigrate(conn *gorm.DB, models ...interface{}) error {
	if err := conn.AutoMigrate(models...); err != nil {
		return fmt.Errorf("自动建表失败: %w", err)
	}
	return nil
}
