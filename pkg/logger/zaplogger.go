package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DisplayMode control the output format
type DisplayMode int

// display modes
const (
	DisplayModeDefault DisplayMode = iota // default is the interactive output
	DisplayModePlain                      // plain text
	DisplayModeJSON                       // JSON
)

var Logger *zap.SugaredLogger

func init() {
	// Usable before InitLogger runs (and in tests).
	Logger = zap.NewNop().Sugar()
}

func logFmtDisplayMode(logFmt string) DisplayMode {
	var dp DisplayMode
	switch strings.ToLower(logFmt) {
	case "json":
		dp = DisplayModeJSON
	case "plain", "text":
		dp = DisplayModePlain
	default:
		dp = DisplayModeDefault
	}
	return dp
}

func getEncoder(logFmt string) zapcore.Encoder {
	dp := logFmtDisplayMode(logFmt)
	switch dp {
	case DisplayModeJSON:
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.ConsoleSeparator = "  "
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
}

// getlumberJackLogWriter writes to a file, rotated by size.
func getlumberJackLogWriter(logPath string, printConsole bool) zapcore.WriteSyncer {
	lumberJackLogger := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   false,
	}
	// io.MultiWriter supports file and terminal targets at once.
	if printConsole {
		w := io.MultiWriter(lumberJackLogger, os.Stdout)
		return zapcore.AddSync(w)
	}
	return zapcore.AddSync(lumberJackLogger)
}

// getRotateLogWriter writes to a file, rotated by date.
func getRotateLogWriter(logPath string, printConsole bool) zapcore.WriteSyncer {
	logger, _ := rotatelogs.New(
		logPath,
		rotatelogs.WithMaxAge(30*24*time.Hour),
		rotatelogs.WithRotationTime(time.Hour*24),
	)
	if printConsole {
		w := io.MultiWriter(logger, os.Stdout)
		return zapcore.AddSync(w)
	}

	return zapcore.AddSync(logger)
}

func getLogWriter(logPath string, printConsole bool, loggerType string) zapcore.WriteSyncer {
	switch loggerType {
	case "lumberjack":
		return getlumberJackLogWriter(logPath, printConsole)
	case "rotatelogs":
		return getRotateLogWriter(logPath, printConsole)
	default:
		return getlumberJackLogWriter(logPath, printConsole)
	}
}

func getLogDir() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Println(err)
	}
	logDir := filepath.Join(dir, "log")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		os.MkdirAll(logDir, os.ModePerm)
	}
	return logDir
}

// InitLogger tees the full log and an ERROR-only log into separate files.
func InitLogger(prefix string, logFmt string, level string, printConsole bool) {
	// log dir
	logDir := getLogDir()
	timeStr := time.Now().Format("20060102_150405")

	// logLevel
	logLevel := zapcore.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		logLevel = zapcore.DebugLevel
	case "warn", "warning":
		logLevel = zapcore.WarnLevel
	case "err", "error":
		logLevel = zapcore.ErrorLevel
	default:
		logLevel = zapcore.InfoLevel
	}

	// encoder
	encoder := getEncoder(logFmt)

	// <ts>_<prefix>_all.log holds everything at the selected level
	logF := getLogWriter(filepath.Join(logDir, fmt.Sprintf("/%s_%s_all.log", timeStr, prefix)), printConsole, "rotatelogs")
	c1 := zapcore.NewCore(encoder, zapcore.AddSync(logF), logLevel)
	// <ts>_<prefix>_err.log holds ERROR and above
	errF := getLogWriter(filepath.Join(logDir, fmt.Sprintf("/%s_%s_err.log", timeStr, prefix)), printConsole, "rotatelogs")
	c2 := zapcore.NewCore(encoder, zapcore.AddSync(errF), zap.ErrorLevel)
	core := zapcore.NewTee(c1, c2)

	logger := zap.New(core, zap.AddCaller())
	Logger = logger.Sugar()
}
