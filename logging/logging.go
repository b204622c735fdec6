package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/lefinal/meh"
	"github.com/lefinal/meh/mehlog"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFilename is the name of the log file in Options.LogDir.
const LogFilename = "log.txt"

const (
	// DefaultMaxSizeMB is the default size in megabytes after which the log file
	// is rotated.
	DefaultMaxSizeMB = 1
	// DefaultMaxBackups is the default number of rotated log files to keep.
	DefaultMaxBackups = 2
)

func init() {
	mehlog.OmitErrorMessageField(true)
}

// Options for NewLogger.
type Options struct {
	// Level is the level for console output. The log file always receives debug
	// output.
	Level zapcore.Level
	// LogDir is the directory for LogFilename. If empty, no log file is written.
	LogDir string
	// MaxSizeMB is the size in megabytes after which the log file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated log files to keep.
	MaxBackups int
	// Console replaces the default console output to stdout if set.
	Console zapcore.Core
}

// NewLogger creates a new zap.Logger that writes to the console and, if
// Options.LogDir is set, to a rotating log file. Don't forget to call Sync() on
// the returned logger and to close the returned io.Closer before exiting!
func NewLogger(options Options) (*zap.Logger, io.Closer, error) {
	consoleCore := options.Console
	if consoleCore == nil {
		consoleCore = newConsoleCore(options.Level)
	}
	if options.LogDir == "" {
		return zap.New(consoleCore, zap.AddCaller()), nopCloser{}, nil
	}
	if options.MaxSizeMB <= 0 {
		return nil, nil, meh.NewBadInputErr("max log size must be positive", meh.Details{"max_size_mb": options.MaxSizeMB})
	}
	if options.MaxBackups < 0 {
		return nil, nil, meh.NewBadInputErr("max log backups must not be negative", meh.Details{"max_backups": options.MaxBackups})
	}
	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(options.LogDir, LogFilename),
		MaxSize:    options.MaxSizeMB,
		MaxBackups: options.MaxBackups,
		LocalTime:  true,
	}
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(debugEncoderConfig(false)), zapcore.AddSync(logFile), zap.DebugLevel)
	logger := zap.New(zapcore.NewTee(consoleCore, fileCore), zap.AddCaller())
	return logger, logFile, nil
}

// NewConsoleLogger creates a new zap.Logger that only writes to the console.
// It is used for reporting errors that occur before a log file is available.
func NewConsoleLogger(level zapcore.Level) *zap.Logger {
	return zap.New(newConsoleCore(level), zap.AddCaller())
}

func newConsoleCore(level zapcore.Level) zapcore.Core {
	color := isTerminal(os.Stdout)
	encoderConfig := userEncoderConfig(color)
	if level < zap.InfoLevel {
		encoderConfig = debugEncoderConfig(color)
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(level))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func levelEncoder(color bool) zapcore.LevelEncoder {
	if color {
		return zapcore.CapitalColorLevelEncoder
	}
	return zapcore.CapitalLevelEncoder
}

// userEncoderConfig only prints level, message and fields.
func userEncoderConfig(color bool) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelEncoder(color),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: ": ",
	}
}

// debugEncoderConfig includes timestamps, logger names and callers.
func debugEncoderConfig(color bool) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    "func",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder(color),
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

var defaultLevelTranslator map[meh.Code]zapcore.Level
var defaultLevelTranslatorMutex sync.RWMutex

func init() {
	defaultLevelTranslator = make(map[meh.Code]zapcore.Level)
	AddToDefaultLevelTranslator(meh.ErrNeutral, zap.InfoLevel)
	mehlog.SetDefaultLevelTranslator(func(code meh.Code) zapcore.Level {
		defaultLevelTranslatorMutex.RLock()
		defer defaultLevelTranslatorMutex.RUnlock()
		if level, ok := defaultLevelTranslator[code]; ok {
			return level
		}
		return zap.ErrorLevel
	})
}

// AddToDefaultLevelTranslator adds the given case to the translation map.
// Errors with unknown codes are logged with error level.
func AddToDefaultLevelTranslator(code meh.Code, level zapcore.Level) {
	defaultLevelTranslatorMutex.Lock()
	defaultLevelTranslator[code] = level
	defaultLevelTranslatorMutex.Unlock()
}

// FormatByteCountDecimal formats bytes, e.g., 1024, as decimal with units, e.g.,
// 1kB.
//
// Taken from
// https://programming.guide/go/formatting-byte-size-to-human-readable-format.html.
func FormatByteCountDecimal(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(b)/float64(div), "kMGTPE"[exp])
}
