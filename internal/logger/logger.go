// internal/logger/logger.go

// Package logger 建立專案共用的 zerolog logger，並提供 context 存取。
package logger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ctxKey 為 logger 在 context 中的私有 key，外部只能經由 WithContext / FromContext 存取。
type ctxKey struct{}

// New 建立輸出到 w 的 console logger；level 無法解析時退回 info。
func New(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	lvl, _ := ParseLevel(level)
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

// NewWithWriter 建立輸出 JSON 至 w 的 logger。
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, _ := ParseLevel(level)
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ParseLevel 解析 "debug"、"info"、"warn" 等字串。
// 空字串視為 info；無法解析時回傳 info 與錯誤，由呼叫端決定是否警告。
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

// WithContext 將 logger 放進 context。
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext 取出 context 中的 logger；沒有時回傳不輸出的 logger。
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return log
	}
	return zerolog.Nop()
}
