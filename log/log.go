package log

import (
	"os"
	"path"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFileName = "sorter.log"

type ZapConfig struct {
	Level         string `mapstructure:"level" json:"level" yaml:"level"`
	Prefix        string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
	Format        string `mapstructure:"format" json:"format" yaml:"format"`
	Director      string `mapstructure:"director" json:"director"  yaml:"director"`
	EncodeLevel   string `mapstructure:"encode-level" json:"encode-level" yaml:"encode-level"`
	StacktraceKey string `mapstructure:"stacktrace-key" json:"stacktrace-key" yaml:"stacktrace-key"`

	MaxAge       int  `mapstructure:"max-age" json:"max-age" yaml:"max-age"` // days
	ShowLine     bool `mapstructure:"show-line" json:"show-line" yaml:"show-line"`
	LogInConsole bool `mapstructure:"log-in-console" json:"log-in-console" yaml:"log-in-console"`
}

func DefaultZapConfig() ZapConfig {
	return ZapConfig{
		Level:         "info",
		Format:        "console",
		Prefix:        "[bigsort]",
		EncodeLevel:   "LowercaseLevelEncoder",
		StacktraceKey: "stacktrace",
		MaxAge:        7,
		LogInConsole:  true,
	}
}

// NewLogger builds a zap logger from cfg. Without a Director it writes to
// stderr, otherwise to a daily rotated file under Director.
func NewLogger(cfg ZapConfig) (*zap.Logger, error) {
	writer, err := cfg.GetWriteSyncer()
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(cfg.GetEncoder(), writer, cfg.TransportLevel())
	logger := zap.New(core)
	if cfg.ShowLine {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger, nil
}

// GetWriteSyncer picks stderr or a rotatelogs file writer
func (z *ZapConfig) GetWriteSyncer() (zapcore.WriteSyncer, error) {
	if z.Director == "" {
		return zapcore.Lock(os.Stderr), nil
	}
	if err := os.MkdirAll(z.Director, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "create log directory %s", z.Director)
	}
	maxAge := z.MaxAge
	if maxAge <= 0 {
		maxAge = 7
	}
	fileWriter, err := rotatelogs.New(
		path.Join(z.Director, "%Y-%m-%d", logFileName),
		rotatelogs.WithClock(rotatelogs.Local),
		rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
		rotatelogs.WithRotationTime(time.Hour*24),
	)
	if err != nil {
		return nil, errors.Wrap(err, "open rotated log file")
	}
	if z.LogInConsole {
		return zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), zapcore.AddSync(fileWriter)), nil
	}
	return zapcore.AddSync(fileWriter), nil
}

// ZapEncodeLevel maps EncodeLevel to a zapcore.LevelEncoder
func (z *ZapConfig) ZapEncodeLevel() zapcore.LevelEncoder {
	switch z.EncodeLevel {
	case "LowercaseColorLevelEncoder":
		return zapcore.LowercaseColorLevelEncoder
	case "CapitalLevelEncoder":
		return zapcore.CapitalLevelEncoder
	case "CapitalColorLevelEncoder":
		return zapcore.CapitalColorLevelEncoder
	default:
		return zapcore.LowercaseLevelEncoder
	}
}

// TransportLevel parses Level, unknown values mean info
func (z *ZapConfig) TransportLevel() zapcore.Level {
	switch strings.ToLower(z.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (z *ZapConfig) GetEncoder() zapcore.Encoder {
	if z.Format == "json" {
		return zapcore.NewJSONEncoder(z.GetEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(z.GetEncoderConfig())
}

func (z *ZapConfig) GetEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  z.StacktraceKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    z.ZapEncodeLevel(),
		EncodeTime:     z.CustomTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// CustomTimeEncoder prefixes every timestamp with Prefix
func (z *ZapConfig) CustomTimeEncoder(t time.Time, encoder zapcore.PrimitiveArrayEncoder) {
	encoder.AppendString(z.Prefix + t.Format("2006/01/02 - 15:04:05.000"))
}
