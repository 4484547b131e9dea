package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger 创建一个新的日志记录器（JSON 格式，用于服务模式）
func NewLogger(debug bool) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = level(debug, zap.InfoLevel)

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.DisableStacktrace = true

	return build(config)
}

// NewConsoleLogger 创建命令行使用的日志记录器
// 非调试模式下只输出警告及以上级别，避免干扰进度条
func NewConsoleLogger(debug bool) *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.Level = level(debug, zap.WarnLevel)

	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.DisableStacktrace = true
	config.DisableCaller = !debug

	return build(config)
}

func level(debug bool, normal zapcore.Level) zap.AtomicLevel {
	if debug {
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zap.NewAtomicLevelAt(normal)
}

func build(config zap.Config) *zap.Logger {
	logger, err := config.Build()
	if err != nil {
		panic("初始化日志系统失败: " + err.Error())
	}
	return logger
}
