package flagenv

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() (*pflag.FlagSet, *bytes.Buffer) {
	var out bytes.Buffer
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(&out)
	return fs, &out
}

func TestLevelP(t *testing.T) {
	fs, _ := newFlagSet()
	level := Ext(fs).LevelP("log-level", "L", slog.LevelWarn, "log level")

	assert.Equal(t, "WARN", fs.Lookup("log-level").DefValue)

	require.NoError(t, fs.Parse([]string{"-L", "debug"}))
	assert.Equal(t, slog.LevelDebug, level.Level())
}

func TestParseEnv(t *testing.T) {
	fs, out := newFlagSet()
	capacity := fs.Uint32("capacity", 256, "")
	noDump := fs.Bool("no-dump", false, "")
	level := Ext(fs).LevelP("log-level", "", slog.LevelInfo, "")

	t.Setenv("FLAGENV_TEST_CAPACITY", "1024")
	t.Setenv("FLAGENV_TEST_NO_DUMP", "true")
	t.Setenv("FLAGENV_TEST_LOG_LEVEL", "error")
	t.Setenv("FLAGENV_TEST_BOGUS", "1")

	require.NoError(t, Ext(fs).ParseEnv("FLAGENV_TEST_"))
	assert.Equal(t, uint32(1024), *capacity)
	assert.True(t, *noDump)
	assert.Equal(t, slog.LevelError, level.Level())
	assert.Contains(t, out.String(), "env FLAGENV_TEST_BOGUS: unknown flag --bogus")

	// command line still wins when parsed afterwards
	require.NoError(t, fs.Parse([]string{"--capacity", "64"}))
	assert.Equal(t, uint32(64), *capacity)
}

func TestParseEnv_Invalid(t *testing.T) {
	fs, _ := newFlagSet()
	fs.Uint32("capacity", 256, "")

	t.Setenv("FLAGENV_INVALID_CAPACITY", "lots")

	err := Ext(fs).ParseEnv("FLAGENV_INVALID_")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env FLAGENV_INVALID_CAPACITY: flag --capacity")
}
