package logx

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var lvl atomic.Int32

func init() {
	lvl.Store(int32(Info))
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags)
}

// ParseLevel maps a config string to a Level. Unknown values fall back to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "err", "error":
		return Error
	default:
		return Info
	}
}

func SetLevelFromString(s string) { SetLevel(ParseLevel(s)) }

func SetLevel(l Level) { lvl.Store(int32(l)) }

func CurrentLevel() Level { return Level(lvl.Load()) }

// SetOutput redirects all log lines, mostly for tests.
func SetOutput(w io.Writer) { log.SetOutput(w) }

func Debugf(format string, args ...any) { logf(Debug, format, args...) }

func Infof(format string, args ...any) { logf(Info, format, args...) }

func Warnf(format string, args ...any) { logf(Warn, format, args...) }

func Errorf(format string, args ...any) { logf(Error, format, args...) }

func logf(l Level, format string, args ...any) {
	if CurrentLevel() > l {
		return
	}
	log.Printf("[%-5s] "+format, append([]any{l.String()}, args...)...)
}
