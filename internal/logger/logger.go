package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"wastewatch/internal/config"
)

// Fields carries structured context for a single entry.
type Fields = logrus.Fields

// Level file names served by the log endpoints.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to rotating files and stdout/stderr.
type Logger struct {
	log    *logrus.Logger
	logDir string
	files  map[string]*lumberjack.Logger
	mu     sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	l := &Logger{
		log:    logrus.New(),
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}
	l.setupLoggers()
	return l
}

// NewDiscard returns a Logger that drops every entry. Used by tests.
func NewDiscard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{log: base}
}

// setupLoggers wires the console formatter and the per-level file hook.
func (l *Logger) setupLoggers() {
	l.log.SetLevel(logrus.DebugLevel)
	l.log.SetOutput(os.Stdout)
	l.log.SetReportCaller(true)
	l.log.SetFormatter(&formatter.Formatter{
		NoColors:        false,
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			site := callSite(f)
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(site.File), site.Line, shortFunction(site.Function))
		},
	})

	for _, name := range []string{InfoFile, WarningFile, ErrorFile} {
		l.files[name] = &lumberjack.Logger{
			Filename:   filepath.Join(l.logDir, name),
			LocalTime:  true,
			MaxSize:    50,
			MaxAge:     14,
			MaxBackups: 3,
		}
	}

	l.log.AddHook(&levelFileHook{
		writers: map[logrus.Level]io.Writer{
			logrus.InfoLevel:  l.files[InfoFile],
			logrus.WarnLevel:  l.files[WarningFile],
			logrus.ErrorLevel: l.files[ErrorFile],
			logrus.FatalLevel: l.files[ErrorFile],
		},
		formatter: &logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				site := callSite(f)
				return shortFunction(site.Function), fmt.Sprintf("%s:%d", path.Base(site.File), site.Line)
			},
		},
	})
}

// Debug writes a formatted debug-level log entry (console only).
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.log.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.log.Errorf(format, v...)
}

// WithFields returns an entry carrying structured context.
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.log.WithFields(fields)
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logDir == "" {
		return
	}

	fileName = filepath.Base(fileName)
	// The rotating writer reopens in append mode on its next write.
	if rotating, ok := l.files[fileName]; ok {
		rotating.Close()
	}

	filePath := filepath.Join(l.logDir, fileName)
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		l.Error("Error opening file: %v", err)
		return
	}
	defer file.Close()

	l.Info("Log file %s has been cleared", fileName)
}

// packagePath is skipped when resolving call sites so the wrapper methods never
// show up as the caller.
var packagePath = reflect.TypeOf((*Logger)(nil)).Elem().PkgPath()

// callSite returns the first frame outside logrus, the formatter and this package.
// reported is used when no such frame is found.
func callSite(reported *runtime.Frame) runtime.Frame {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !loggingFrame(f.Function) {
			return f
		}
		if !more {
			break
		}
	}
	if reported != nil {
		return *reported
	}
	return runtime.Frame{}
}

func loggingFrame(function string) bool {
	return strings.HasPrefix(function, "github.com/sirupsen/logrus") ||
		strings.HasPrefix(function, "github.com/antonfisher/nested-logrus-formatter") ||
		strings.HasPrefix(function, packagePath+".")
}

func shortFunction(function string) string {
	s := strings.Split(function, ".")
	return s[len(s)-1]
}

// levelFileHook mirrors entries into one file per level.
type levelFileHook struct {
	writers   map[logrus.Level]io.Writer
	formatter logrus.Formatter
	mu        sync.Mutex
}

func (h *levelFileHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel, logrus.FatalLevel}
}

func (h *levelFileHook) Fire(entry *logrus.Entry) error {
	w, ok := h.writers[entry.Level]
	if !ok {
		return nil
	}

	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = w.Write(line)
	return err
}
