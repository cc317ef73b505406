package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/nalgeon/be"
)

func override(t *testing.T, v, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = oldV, oldC, oldD })
}

func TestInfo(t *testing.T) {
	override(t, "1.2.3", "abc123def4567890", "2026-01-15")
	be.Equal(t, Info(false), "veil 1.2.3 (commit abc123def456, built 2026-01-15)")

	override(t, "0.1.0-dev", "", "")
	be.Equal(t, Info(false), "veil 0.1.0-dev")
}

func TestColoredKeepsText(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	override(t, "1.2.3-rc.1", "", "")
	be.Equal(t, Colored(), "1.2.3-rc.1")

	override(t, "nightly", "", "")
	be.Equal(t, Colored(), "nightly")
}
