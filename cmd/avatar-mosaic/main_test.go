package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func encodeAvatar(t *testing.T, size int, striped bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{40, 160, 90, 255}
			if striped && (y/4)%2 == 1 {
				c = color.RGBA{200, 30, 160, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeAvatar(t *testing.T, dir, name string, striped bool) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, encodeAvatar(t, 16, striped), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "avatar-mosaic dev")
	assert.Contains(t, out, "Git commit: unknown")
}

func TestHSVCommand(t *testing.T) {
	out, _, err := execute(t, "hsv", "#FF0000", "#FE0101")
	require.NoError(t, err)
	assert.Contains(t, out, "#FF0000  H: 0.0, S: 1.000, V: 1.000  chromatic")
	assert.Contains(t, out, "close: true")

	out, _, err = execute(t, "hsv", "#808080", "#FF0000")
	require.NoError(t, err)
	assert.Contains(t, out, "gray")
	assert.Contains(t, out, "close: false")

	_, _, err = execute(t, "hsv", "not-a-color")
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	uniform := writeAvatar(t, dir, "uniform.png", false)
	striped := writeAvatar(t, dir, "striped.png", true)

	out, _, err := execute(t, "check", "--json=false", uniform, striped)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "uniform.png: automatic")
	assert.Contains(t, lines[1], "striped.png: photo")
}

func TestCheckCommand_JSON(t *testing.T) {
	path := writeAvatar(t, t.TempDir(), "uniform.png", false)

	out, _, err := execute(t, "check", "--json", path)
	require.NoError(t, err)

	var report struct {
		Path      string `json:"path"`
		Width     int    `json:"width"`
		Automatic bool   `json:"automatic"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, path, report.Path)
	assert.Equal(t, 16, report.Width)
	assert.True(t, report.Automatic)
}

func TestCheckCommand_MissingFile(t *testing.T) {
	_, stderr, err := execute(t, "check", "--json=false", "/nonexistent/avatar.png")
	require.Error(t, err)
	assert.Contains(t, stderr, "/nonexistent/avatar.png")
}

func TestGridCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeAvatar(t, dir, "a.png", true)
	b := writeAvatar(t, dir, "b.png", false)
	output := filepath.Join(dir, "out.png")

	out, _, err := execute(t, "grid",
		"--columns", "2", "--rows", "1",
		"--cell-width", "4", "--cell-height", "4",
		"--gap", "0", "--corner-radius-x", "0", "--corner-radius-y", "0",
		"-o", output, a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "8x4, 2 images")

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 4, cfg.Height)
}

func TestComposeCommand(t *testing.T) {
	uniform := encodeAvatar(t, 16, false)
	striped := encodeAvatar(t, 16, true)

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/users/"):
			items := []map[string]any{}
			for _, id := range strings.Split(strings.TrimPrefix(r.URL.Path, "/users/"), ";") {
				items = append(items, map[string]any{
					"user_id":       json.Number(id),
					"display_name":  "user " + id,
					"profile_image": srv.URL + "/avatar/" + id,
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
		case r.URL.Path == "/avatar/3":
			_, _ = w.Write(uniform)
		case strings.HasPrefix(r.URL.Path, "/avatar/"):
			_, _ = w.Write(striped)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	idsFile := filepath.Join(dir, "ids.txt")
	require.NoError(t, os.WriteFile(idsFile, []byte("1\n2\n3\n2\n"), 0o644))

	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(fmt.Sprintf(`
ids_file: %s
output: %s
seed: 42
grid:
  columns: 2
  rows: 1
  cell_width: 8
  cell_height: 8
  gap: 1
api:
  base_url: %s
`, idsFile, filepath.Join(dir, "mosaic-{cols}x{rows}.png"), srv.URL)), 0o644))

	out, _, err := execute(t, "compose", "--config", configFile, "--log-level", "error")
	require.NoError(t, err)

	output := filepath.Join(dir, "mosaic-2x1.png")
	assert.Contains(t, out, output+": 2 placed, 1 automatic, 0 failed of 3 users")

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 17, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}

func TestComposeCommand_InvalidConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("grid:\n  columns: -1\n"), 0o644))

	_, _, err := execute(t, "compose", "--config", configFile)
	assert.Error(t, err)
}
