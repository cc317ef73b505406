// Package config loads the target profile and compiler limits from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"veil/internal/instr"
)

// FileName is the configuration file looked up by FindFile.
const FileName = "veil.toml"

// Profile describes the instruction set of the target.
type Profile struct {
	Name        string   `toml:"name"`
	MaxIntWidth int      `toml:"max_int_width"`
	Opcodes     []string `toml:"opcodes"` // empty means every opcode
}

// Limits are the resource ceilings of the expanding passes.
type Limits struct {
	MaxUnrolled       int `toml:"max_unrolled"`
	MaxInstantiations int `toml:"max_instantiations"`
	MaxDepth          int `toml:"max_depth"`
}

type Diagnostics struct {
	WarningsAsErrors bool `toml:"warnings_as_errors"`
	Max              int  `toml:"max"` // 0 keeps every diagnostic
}

type Build struct {
	Jobs   int  `toml:"jobs"`
	Verify bool `toml:"verify"`
}

type Trace struct {
	Level  string `toml:"level"`
	Output string `toml:"output"` // "stderr", "stdout" or a file path
}

// Config is the full compiler configuration.
type Config struct {
	Profile     Profile     `toml:"profile"`
	Limits      Limits      `toml:"limits"`
	Diagnostics Diagnostics `toml:"diagnostics"`
	Build       Build       `toml:"build"`
	Trace       Trace       `toml:"trace"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Profile: Profile{Name: "aleo", MaxIntWidth: 128},
		Limits: Limits{
			MaxUnrolled:       100_000,
			MaxInstantiations: 1024,
			MaxDepth:          64,
		},
		Build: Build{Jobs: runtime.GOMAXPROCS(0)},
		Trace: Trace{Level: "off", Output: "stderr"},
	}
}

var (
	// ErrInvalidWidth is returned for an unsupported max_int_width.
	ErrInvalidWidth = errors.New("invalid [profile].max_int_width")
	// ErrInvalidLimit is returned for a non-positive limit.
	ErrInvalidLimit = errors.New("invalid [limits] value")
)

// Parse decodes TOML on top of the defaults and validates the result.
func Parse(data string) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	switch c.Profile.MaxIntWidth {
	case 8, 16, 32, 64, 128:
	default:
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidWidth, c.Profile.MaxIntWidth))
	}
	for _, op := range c.Profile.Opcodes {
		if _, ok := instr.ParseOpcode(op); !ok {
			errs = append(errs, fmt.Errorf("unknown opcode %q in [profile].opcodes", op))
		}
	}
	limits := []struct {
		name string
		v    int
	}{
		{"max_unrolled", c.Limits.MaxUnrolled},
		{"max_instantiations", c.Limits.MaxInstantiations},
		{"max_depth", c.Limits.MaxDepth},
	}
	for _, l := range limits {
		if l.v <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s = %d", ErrInvalidLimit, l.name, l.v))
		}
	}
	if c.Diagnostics.Max < 0 {
		errs = append(errs, fmt.Errorf("invalid [diagnostics].max: %d", c.Diagnostics.Max))
	}
	if c.Build.Jobs < 0 {
		errs = append(errs, fmt.Errorf("invalid [build].jobs: %d", c.Build.Jobs))
	}
	return errors.Join(errs...)
}

// Jobs returns the worker count, GOMAXPROCS when unset.
func (c Config) Jobs() int {
	if c.Build.Jobs > 0 {
		return c.Build.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Allows reports whether the profile permits opcode op.
func (p Profile) Allows(op string) bool {
	return len(p.Opcodes) == 0 || slices.Contains(p.Opcodes, op)
}

// Encode writes c as TOML.
func (c Config) Encode() (string, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FindFile walks up from startDir to locate veil.toml.
func FindFile(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
