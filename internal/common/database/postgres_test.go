package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dumeirei/incentive-backend/internal/common/config"
)

type ledgerRow struct {
	ID     int64 `gorm:"primaryKey"`
	UserID int64
	Amount int64
}

func TestOpenDialector(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		want   string
	}{
		{"postgres", "postgres", "postgres"},
		{"默认使用postgres", "", "postgres"},
		{"sqlite", "sqlite", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := openDialector(&config.DatabaseConfig{Driver: tt.driver, Name: "incentive"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := openDialector(&config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestInit_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:          "sqlite",
		Name:            filepath.Join(t.TempDir(), "incentive.db"),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: 5,
	}
	conn, err := Init(cfg)
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, AutoMigrate(conn, &ledgerRow{}))
	require.NoError(t, conn.Create(&ledgerRow{UserID: 7, Amount: 300}).Error)

	var total int64
	require.NoError(t, conn.Model(&ledgerRow{}).Where("user_id = ?", 7).Select("SUM(amount)").Scan(&total).Error)
	assert.Equal(t, int64(300), total)
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func newObserved(level zapcore.Level, cfg *config.DatabaseConfig) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewGormLogger(zap.New(core), cfg), logs
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT * FROM ledger_entries", 3 }

	t.Run("错误记录", func(t *testing.T) {
		l, logs := newObserved(zap.DebugLevel, &config.DatabaseConfig{})
		l.Trace(ctx, time.Now(), sql, assert.AnError)
		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zap.ErrorLevel, entry.Level)
		assert.Equal(t, "SELECT * FROM ledger_entries", entry.ContextMap()["sql"])
		assert.Equal(t, int64(3), entry.ContextMap()["rows"])
	})

	t.Run("记录不存在不视为错误", func(t *testing.T) {
		l, logs := newObserved(zap.DebugLevel, &config.DatabaseConfig{})
		l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("慢查询", func(t *testing.T) {
		l, logs := newObserved(zap.DebugLevel, &config.DatabaseConfig{SlowThreshold: 10})
		l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
		assert.Equal(t, "慢查询", logs.All()[0].Message)
	})

	t.Run("开启 log_mode 时输出所有 SQL", func(t *testing.T) {
		l, logs := newObserved(zap.DebugLevel, &config.DatabaseConfig{LogMode: true})
		l.Trace(ctx, time.Now(), sql, nil)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.DebugLevel, logs.All()[0].Level)
	})

	t.Run("关闭 log_mode 时忽略普通 SQL", func(t *testing.T) {
		l, logs := newObserved(zap.DebugLevel, &config.DatabaseConfig{})
		l.Trace(ctx, time.Now(), sql, nil)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("静默", func(t *testing.T) {
		l, logs := newObserved(zap.DebugLevel, &config.DatabaseConfig{LogMode: true})
		l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), sql, assert.AnError)
		assert.Equal(t, 0, logs.Len())
	})
}

func TestGormLogger_Messages(t *testing.T) {
	ctx := context.Background()
	l, logs := newObserved(zap.DebugLevel, &config.DatabaseConfig{})

	l.Info(ctx, "migrating %s", "ledger_entries")
	l.Warn(ctx, "coluna %s ausente", "event_id")
	l.Error(ctx, "falha: %v", "timeout")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "coluna event_id ausente", logs.All()[0].Message)
	assert.Equal(t, "falha: timeout", logs.All()[1].Message)

	verbose := l.LogMode(gormlogger.Info)
	verbose.Info(ctx, "migrating %s", "ledger_entries")
	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, gormlogger.Warn, l.level)
}
