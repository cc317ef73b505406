package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"

	"veil/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	be.Err(t, cfg.Validate(), nil)
	be.Equal(t, cfg.Profile.MaxIntWidth, 128)
	be.True(t, cfg.Profile.Allows("mul"))
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := config.Parse(`
[profile]
name = "tiny"
max_int_width = 32
opcodes = ["add", "output"]

[limits]
max_unrolled = 10

[diagnostics]
warnings_as_errors = true
`)
	be.Err(t, err, nil)
	be.Equal(t, cfg.Profile.Name, "tiny")
	be.Equal(t, cfg.Limits.MaxUnrolled, 10)
	be.Equal(t, cfg.Limits.MaxDepth, config.Default().Limits.MaxDepth)
	be.True(t, cfg.Diagnostics.WarningsAsErrors)
	be.True(t, cfg.Profile.Allows("add"))
	be.True(t, !cfg.Profile.Allows("mul"))
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := config.Parse("[profile]\nmax_int_width = 12\n")
	be.True(t, errors.Is(err, config.ErrInvalidWidth))

	_, err = config.Parse("[limits]\nmax_depth = 0\n")
	be.True(t, errors.Is(err, config.ErrInvalidLimit))

	_, err = config.Parse("[profile]\nopcodes = [\"jump\"]\n")
	be.True(t, err != nil)

	_, err = config.Parse("[limits]\nmax_loops = 3\n")
	be.True(t, err != nil)

	_, err = config.Parse("[limits\n")
	be.True(t, err != nil)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Profile.Opcodes = []string{"add"}
	text, err := cfg.Encode()
	be.Err(t, err, nil)
	back, err := config.Parse(text)
	be.Err(t, err, nil)
	be.Equal(t, back.Profile.Opcodes, []string{"add"})
	be.Equal(t, back.Limits, cfg.Limits)
}

func TestFindFileWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	be.Err(t, os.MkdirAll(nested, 0o755), nil)
	be.Err(t, os.WriteFile(filepath.Join(root, config.FileName), []byte("[build]\njobs = 2\n"), 0o644), nil)

	path, ok, err := config.FindFile(nested)
	be.Err(t, err, nil)
	be.True(t, ok)

	cfg, err := config.Load(path)
	be.Err(t, err, nil)
	be.Equal(t, cfg.Jobs(), 2)
}
