package log

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// 声明即可用，引擎和测试不经过进程入口也能打日志；InitLog 只做重新配置
var logger = log.New(os.Stdout)

func InitLog(appName string, logLevel string) {
	// 统一写 os.Stdout，避免终端把 stderr 渲染成红色
	logger = log.New(os.Stdout)
	logger.SetPrefix(appName)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)

	// 启用调用者信息（文件名和行号），排查牌局问题时很有用
	logger.SetReportCaller(true)
	// 默认为 info 级别
	if logLevel == "" {
		logLevel = "info"
	}

	logLevel = strings.ToLower(logLevel)
	switch logLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
}

func Fatal(format string, args ...any) {
	if len(args) == 0 {
		logger.Fatalf(format)
	} else {
		logger.Fatalf(format, args...)
	}
}

func Info(format string, args ...any) {
	if len(args) == 0 {
		logger.Infof(format)
	} else {
		logger.Infof(format, args...)
	}
}

func Warn(format string, args ...any) {
	if len(args) == 0 {
		logger.Warnf(format)
	} else {
		logger.Warnf(format, args...)
	}
}

func Error(format string, args ...any) {
	if len(args) == 0 {
		logger.Errorf(format)
	} else {
		logger.Errorf(format, args...)
	}
}

func Debug(format string, args ...any) {
	if len(args) == 0 {
		logger.Debugf(format)
	} else {
		logger.Debugf(format, args...)
	}
}
