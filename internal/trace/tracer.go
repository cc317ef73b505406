package trace

import (
	"fmt"
	"io"
	"os"
	"strings"

	"veil/internal/config"
)

// Tracer receives events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev Event)
	Flush() error
	Close() error
	Level() Level
}

// Enabled reports whether t emits anything at all.
func Enabled(t Tracer) bool {
	return t != nil && t.Level() > LevelOff
}

// New builds the tracer described by the [trace] configuration section.
// Output "stderr" and "stdout" use the process streams; any other value is
// a file path, and a ".ndjson" suffix selects the JSON format.
func New(cfg config.Trace) (Tracer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if level == LevelOff {
		return Nop, nil
	}
	var w io.Writer
	switch cfg.Output {
	case "", "stderr", "-":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace output: %w", err)
		}
		w = f
	}
	format := FormatText
	if strings.HasSuffix(cfg.Output, ".ndjson") {
		format = FormatNDJSON
	}
	return NewStream(w, level, format), nil
}
