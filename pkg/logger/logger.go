package logger

import (
	"PhotoAlbum/config"
	"errors"
	"io"
	"log/slog"
	"os"
)

// InitLogger 根据 config.yaml 中的配置初始化一个全局的 slog 日志记录器。
func InitLogger() error {
	if config.C == nil {
		return errors.New("配置尚未加载")
	}
	l, err := New(os.Stdout, config.C.Logger)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}

// New 按配置创建一个写入 w 的 logger，格式为 text 或 json。
func New(w io.Writer, cfg config.LoggerConfig) (*slog.Logger, error) {
	logLevel := new(slog.LevelVar)
	if err := setLogLevel(cfg.Level, logLevel); err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var logHandler slog.Handler
	if cfg.Format == "json" {
		logHandler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		logHandler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(logHandler), nil
}

// setLogLevel 将字符串形式的日志级别转换为 slog.Level 类型
func setLogLevel(levelStr string, levelVar *slog.LevelVar) error {
	switch levelStr {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "info", "":
		levelVar.Set(slog.LevelInfo)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		return errors.New("无效的日志级别: " + levelStr)
	}
	return nil
}

// Discard 返回一个丢弃所有日志的 logger，主要用于测试，避免不必要的日志输出。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
