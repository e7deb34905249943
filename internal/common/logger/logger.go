// Package logger 提供结构化日志功能
package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dumeirei/incentive-backend/internal/common/config"
)

// 输出目标
const (
	OutputStdout = "stdout"
	OutputFile   = "file"
	OutputBoth   = "both"
)

var log *zap.Logger

// Init 按配置创建全局日志器
func Init(cfg *config.LoggerConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	log = l
	return nil
}

// New 按配置创建日志器
func New(cfg *config.LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("无效的日志级别 %q", cfg.Level)
		}
	}

	sink, err := newSink(cfg)
	if err != nil {
		return nil, err
	}

	options := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return zap.New(zapcore.NewCore(newEncoder(cfg.Format), sink, level), options...), nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func newSink(cfg *config.LoggerConfig) (zapcore.WriteSyncer, error) {
	output := cfg.Output
	if output == "" {
		output = OutputStdout
	}

	var writers []zapcore.WriteSyncer
	switch output {
	case OutputStdout, OutputFile, OutputBoth:
	default:
		return nil, fmt.Errorf("无效的日志输出 %q", cfg.Output)
	}
	if output != OutputFile {
		writers = append(writers, zapcore.Lock(os.Stdout))
	}
	if output != OutputStdout {
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("日志输出为 %s 时必须配置 file_path", output)
		}
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}))
	}
	return zapcore.NewMultiWriteSyncer(writers...), nil
}

// GetLogger 获取全局日志器，未初始化时返回开发模式日志器
func GetLogger() *zap.Logger {
	if log == nil {
		log, _ = zap.NewDevelopment()
	}
	return log
}

// Sync 刷新缓冲
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}

// Debug 调试日志
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info 信息日志
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn 警告日志
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error 错误日志
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Err 错误字段
var Err = zap.Error

// RequestID 请求ID字段
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// UserID 用户ID字段
func UserID(id int64) zap.Field {
	return zap.Int64("user_id", id)
}

// SellerID 销售员ID字段
func SellerID(id int64) zap.Field {
	return zap.Int64("seller_id", id)
}

// CampaignID 活动ID字段
func CampaignID(id int64) zap.Field {
	return zap.Int64("campaign_id", id)
}

// EventID 特殊活动ID字段
func EventID(id int64) zap.Field {
	return zap.Int64("event_id", id)
}

// CardSequence 卡片序号字段
func CardSequence(seq int) zap.Field {
	return zap.Int("card_sequence", seq)
}

// ExternalID 外部销售单号字段
func ExternalID(id string) zap.Field {
	return zap.String("external_id", id)
}

// RedemptionNo 兑换单号字段
func RedemptionNo(no string) zap.Field {
	return zap.String("redemption_no", no)
}

// Module 模块字段
func Module(name string) zap.Field {
	return zap.String("module", name)
}

// Action 操作字段
func Action(name string) zap.Field {
	return zap.String("action", name)
}

// Latency 耗时字段
func Latency(d time.Duration) zap.Field {
	return zap.Duration("latency", d)
}
