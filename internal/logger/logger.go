// 包 logger：统一初始化与获取日志器；通过环境变量控制日志级别与输出格式，单次运行附带 run_id
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// 默认日志器：进程级复用
var defaultLogger *slog.Logger

// Setup：初始化默认日志器
// 约束：输出目标固定为标准错误；LOG_FORMAT=json 时输出 JSON，其余为文本
func Setup() *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// WithRun：为本次运行生成 run_id 并替换默认日志器，返回 run_id
func WithRun() string {
	id := uuid.NewString()
	defaultLogger = L().With("run_id", id)
	return id
}

// L：获取默认日志器；未初始化时回退到 Setup
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}
