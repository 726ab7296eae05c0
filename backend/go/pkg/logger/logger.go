package logger

import (
	"io"
	"os"

	"country_facts/backend/go/internal/models"

	"github.com/sirupsen/logrus"
)

// Logger 是对 logrus 的封装，以提供更方便的结构化日志记录功能。
// 所有 With* 方法都返回新的 Logger，原实例不会被修改，因此可以在并发请求之间共享。
type Logger struct {
	entry *logrus.Entry
}

// Init 初始化全局的 logrus 配置。
// level: 日志级别；format: "json"（默认）或 "text"。
func Init(level logrus.Level, format string) {
	InitWithOutput(level, format, os.Stdout)
}

// InitWithOutput 与 Init 相同，但允许指定输出目标，主要用于测试。
func InitWithOutput(level logrus.Level, format string, out io.Writer) {
	if format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}
	logrus.SetOutput(out)
	logrus.SetLevel(level)
}

// ParseLevel 解析日志级别字符串，无法解析时回退到 info。
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// New 创建一个新的 Logger 实例，并预设服务名和追踪 ID。
func New(serviceName, traceID string) *Logger {
	fields := logrus.Fields{"service_name": serviceName}
	if traceID != "" {
		fields["trace_id"] = traceID
	}
	return &Logger{entry: logrus.WithFields(fields)}
}

// FromEntry wraps an existing logrus entry, e.g. one bound to a test logger.
func FromEntry(entry *logrus.Entry) *Logger {
	return &Logger{entry: entry}
}

// WithTrace 返回带有追踪 ID 的新 Logger。
func (l *Logger) WithTrace(traceID string) *Logger {
	return &Logger{entry: l.entry.WithField("trace_id", traceID)}
}

// WithField 返回附加了单个字段的新 Logger。
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithRequest 将请求信息添加到日志条目中。
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return &Logger{entry: l.entry.WithField("request_info", req)}
}

// WithError 将错误信息添加到日志条目中。
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return &Logger{entry: l.entry.WithField("error", err)}
}

// WithPayload 将自定义的业务数据添加到日志条目中。
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

// Info 记录一条信息级别的日志。
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn 记录一条警告级别的日志。
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error 记录一条错误级别的日志。
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug 记录一条调试级别的日志。
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal 记录一条致命错误级别的日志，并终止程序。
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
