package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerConfig struct {
	LogToFile       bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
	Filename        string `mapstructure:"filename" yaml:"filename"`
	MaxSize         int    `mapstructure:"max_size" yaml:"max_size"`
	MaxAge          int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups      int    `mapstructure:"max_backups" yaml:"max_backups"`
	LogLevel        string `mapstructure:"log_level" yaml:"log_level"`
	IncludeSrc      bool   `mapstructure:"include_src" yaml:"include_src"`
	CompressOldLogs bool   `mapstructure:"compress_old_logs" yaml:"compress_old_logs"`
}

// New builds a JSON logger writing to stdout and, when configured, to a
// rotated log file.
func New(cfg LoggerConfig) *slog.Logger {
	return newLogger(cfg, os.Stdout)
}

// InitLogger builds the logger and installs it as the slog default.
func InitLogger(cfg LoggerConfig) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(cfg LoggerConfig, stdout io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     LevelFromString(cfg.LogLevel),
		AddSource: cfg.IncludeSrc,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
					source.Function = strings.TrimPrefix(source.Function, "github.com/paulexconde/surveypulse")
				}
			}
			return a
		},
	}

	w := stdout
	if cfg.LogToFile && cfg.Filename != "" {
		w = io.MultiWriter(stdout, &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxAge:     cfg.MaxAge,  // days
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.CompressOldLogs,
		})
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}

func LevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
