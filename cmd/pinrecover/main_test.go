package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/pinrecover/internal/config"
)

// setupHome isolates config loading from the developer's environment and
// returns the pinrecover config directory.
func setupHome(t *testing.T) string {
	t.Helper()
	home, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	t.Setenv("HOME", home)
	t.Setenv("PINRECOVER_LOGGING_LEVEL", "error")

	dir := filepath.Join(home, ".config", "pinrecover")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func saveWithPIN(pin string) []byte {
	data := make([]byte, 50000)
	copy(data[40000:], `{"pinCode": "`+pin+`"}`)
	return data
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func run(t *testing.T, stdin []byte, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, bytes.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, nil, "version")
	assert.Equal(t, exitFound, code)
	assert.Contains(t, out, "Version:    dev")
	assert.Contains(t, out, "Build Date:")
}

func TestScan(t *testing.T) {
	t.Run("masks pin by default", func(t *testing.T) {
		setupHome(t)
		path := writeFile(t, t.TempDir(), "save.bin", saveWithPIN("482915"))

		code, out, _ := run(t, nil, "scan", path)
		assert.Equal(t, exitFound, code)
		assert.Contains(t, out, "PIN found")
		assert.Contains(t, out, "******")
		assert.Contains(t, out, "keyword")
		assert.NotContains(t, out, "482915")
	})

	t.Run("reveal flag prints digits", func(t *testing.T) {
		setupHome(t)
		path := writeFile(t, t.TempDir(), "save.bin", saveWithPIN("482915"))

		code, out, _ := run(t, nil, "--reveal", "scan", path)
		assert.Equal(t, exitFound, code)
		assert.Contains(t, out, "482915")
	})

	t.Run("reads stdin", func(t *testing.T) {
		setupHome(t)

		code, out, _ := run(t, saveWithPIN("1357"), "scan", "--reveal", "-")
		assert.Equal(t, exitFound, code)
		assert.Contains(t, out, "1357")
		assert.Contains(t, out, "stdin")
	})

	t.Run("not found exits 2", func(t *testing.T) {
		setupHome(t)
		path := writeFile(t, t.TempDir(), "empty.bin", make([]byte, 4096))

		code, out, stderr := run(t, nil, "scan", path)
		assert.Equal(t, exitNotFound, code)
		assert.Contains(t, out, "PIN not found")
		assert.Contains(t, out, "not_found")
		assert.Empty(t, stderr)
	})

	t.Run("missing file exits 2", func(t *testing.T) {
		setupHome(t)

		code, out, _ := run(t, nil, "scan", filepath.Join(t.TempDir(), "absent"))
		assert.Equal(t, exitNotFound, code)
		assert.Contains(t, out, "open_error")
	})

	t.Run("requires one argument", func(t *testing.T) {
		setupHome(t)

		code, _, stderr := run(t, nil, "scan")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "Error:")
	})
}

func TestRecover(t *testing.T) {
	t.Run("finds pin under root", func(t *testing.T) {
		setupHome(t)
		root := t.TempDir()
		writeFile(t, root, config.DefaultSavePath, saveWithPIN("2468"))

		code, out, _ := run(t, nil, "recover", "--root", root, "--reveal")
		assert.Equal(t, exitFound, code)
		assert.Contains(t, out, "Mounting SYSTEM")
		assert.Contains(t, out, "Found pin save")
		assert.Contains(t, out, "2468")
	})

	t.Run("missing save exits 2", func(t *testing.T) {
		setupHome(t)

		code, out, _ := run(t, nil, "recover", "--root", t.TempDir())
		assert.Equal(t, exitNotFound, code)
		assert.Contains(t, out, "Pin save missing")
	})

	t.Run("missing root directory is an error", func(t *testing.T) {
		setupHome(t)

		code, _, stderr := run(t, nil, "recover", "--root", filepath.Join(t.TempDir(), "nope"))
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "preparing SYSTEM volume")
	})

	t.Run("root flag is required", func(t *testing.T) {
		setupHome(t)

		code, _, stderr := run(t, nil, "recover")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "root")
	})
}

func TestConfiguration(t *testing.T) {
	t.Run("config file enables reveal", func(t *testing.T) {
		dir := setupHome(t)
		cfgPath := writeFile(t, dir, "config.yaml", []byte("recovery:\n  reveal: true\n"))
		path := writeFile(t, t.TempDir(), "save.bin", saveWithPIN("97531"))

		code, out, _ := run(t, nil, "--config", cfgPath, "scan", path)
		assert.Equal(t, exitFound, code)
		assert.Contains(t, out, "97531")
	})

	t.Run("environment enables reveal", func(t *testing.T) {
		setupHome(t)
		t.Setenv("PINRECOVER_RECOVERY_REVEAL", "true")
		path := writeFile(t, t.TempDir(), "save.bin", saveWithPIN("8642"))

		code, out, _ := run(t, nil, "scan", path)
		assert.Equal(t, exitFound, code)
		assert.Contains(t, out, "8642")
	})

	t.Run("config outside the config directory is rejected", func(t *testing.T) {
		setupHome(t)
		cfgPath := writeFile(t, t.TempDir(), "config.yaml", []byte("recovery:\n  reveal: true\n"))

		code, _, stderr := run(t, nil, "--config", cfgPath, "version")
		assert.Equal(t, exitFound, code, "version does not load config")

		code, _, stderr = run(t, nil, "--config", cfgPath, "scan", "-")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "loading config")
	})

	t.Run("invalid log level", func(t *testing.T) {
		setupHome(t)

		code, _, stderr := run(t, nil, "--log-level", "loud", "scan", "-")
		assert.Equal(t, exitError, code)
		assert.Contains(t, stderr, "invalid log level")
	})

	t.Run("invalid scanner config", func(t *testing.T) {
		setupHome(t)
		t.Setenv("PINRECOVER_SCANNER_OVERLAP", "999999")

		code, _, _ := run(t, nil, "scan", "-")
		assert.Equal(t, exitError, code)
	})
}

func TestWatch_Once(t *testing.T) {
	setupHome(t)
	t.Setenv("PINRECOVER_RECOVERY_WATCH_DEBOUNCE", "50ms")
	dir := t.TempDir()

	type outcome struct {
		code int
		out  string
	}
	done := make(chan outcome, 1)
	go func() {
		var stdout, stderr bytes.Buffer
		code := execute([]string{"watch", "--once", "--reveal", "--pattern", "*.bin", dir}, nil, &stdout, &stderr)
		done <- outcome{code, stdout.String()}
	}()

	// Keep rewriting until the watcher is up and picks the file.
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case res := <-done:
			assert.Equal(t, exitFound, res.code)
			assert.Contains(t, res.out, "save.bin")
			assert.Contains(t, res.out, "5555")
			assert.False(t, strings.Contains(res.out, "ignored.txt"))
			return
		case <-tick.C:
			writeFile(t, dir, "ignored.txt", saveWithPIN("1111"))
			writeFile(t, dir, "save.bin", saveWithPIN("5555"))
		case <-deadline:
			t.Fatal("watch did not report the pin")
		}
	}
}
