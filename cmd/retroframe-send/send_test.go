package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rflog "github.com/retroframe/retroframe-go/pkg/log"
	"github.com/retroframe/retroframe-go/pkg/simulator"
	"github.com/retroframe/retroframe-go/pkg/transport"
)

const testAnimation = `
rows: 1
columns: 2
frames:
  - ["#FF0000", "rgb(0, 0, 255)"]
  - ["", "rgba(10, 20, 30, 0.5)"]
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := runWith(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSendToSimulator(t *testing.T) {
	dev := simulator.New(simulator.Config{CellCount: 2})
	srv := httptest.NewServer(dev)
	defer srv.Close()

	anim := writeTemp(t, "anim.yaml", testAnimation)
	capture := filepath.Join(t.TempDir(), "send.rlog")

	code, stdout, stderr := runCmd(t, "-device", srv.URL, "-delay", "150ms", "-protocol-log", capture, anim)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Sent 2 frames")

	assert.Equal(t, [][]byte{
		{0, 0, 255, 1, 255, 0, 0, 1},
		{0, 0, 0, 1, 30, 20, 10, 1},
	}, dev.Buffers())

	shows := dev.Shows()
	require.Len(t, shows, 1)
	assert.Equal(t, 150*time.Millisecond, shows[0].Delay)

	r, err := rflog.NewReader(capture)
	require.NoError(t, err)
	defer r.Close()
	var events []rflog.Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
	// transmission start, 4 steps x (start, success), transmission success
	assert.Len(t, events, 10)
}

func TestSendReportsFailedFrame(t *testing.T) {
	dev := simulator.New(simulator.Config{})
	dev.FailOn(transport.OpUpload, 2, http.StatusInternalServerError)
	srv := httptest.NewServer(dev)
	defer srv.Close()

	anim := writeTemp(t, "anim.yaml", testAnimation)

	code, _, stderr := runCmd(t, "-device", srv.URL, anim)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "upload failed: frame 1")
	assert.Empty(t, dev.Shows())
}

func TestSendUsesConfigFile(t *testing.T) {
	dev := simulator.New(simulator.Config{})
	srv := httptest.NewServer(dev)
	defer srv.Close()

	cfgPath := writeTemp(t, "retroframe.yaml", "device:\n  address: "+srv.URL+"\nshow:\n  delay: 80ms\n")
	anim := writeTemp(t, "anim.yaml", testAnimation)

	code, _, stderr := runCmd(t, "-config", cfgPath, anim)
	require.Equal(t, 0, code, stderr)
	require.Len(t, dev.Shows(), 1)
	assert.Equal(t, 80*time.Millisecond, dev.Shows()[0].Delay)

	// Flags win over the file.
	dev.Reset()
	code, _, stderr = runCmd(t, "-config", cfgPath, "-delay", "40ms", anim)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, 40*time.Millisecond, dev.Shows()[0].Delay)
}

func TestSendErrors(t *testing.T) {
	anim := writeTemp(t, "anim.yaml", testAnimation)

	t.Run("no args", func(t *testing.T) {
		code, _, stderr := runCmd(t)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "animation file is required")
	})

	t.Run("no device", func(t *testing.T) {
		code, _, stderr := runCmd(t, anim)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "no device address")
	})

	t.Run("missing animation", func(t *testing.T) {
		code, _, _ := runCmd(t, "-device", "127.0.0.1:1", filepath.Join(t.TempDir(), "none.yaml"))
		assert.Equal(t, 1, code)
	})

	t.Run("invalid animation", func(t *testing.T) {
		bad := writeTemp(t, "bad.yaml", "rows: 2\ncolumns: 2\nframes:\n  - [\"#fff\"]\n")
		code, _, stderr := runCmd(t, "-device", "127.0.0.1:1", bad)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "cell count does not match grid")
	})

	t.Run("bad log level", func(t *testing.T) {
		code, _, _ := runCmd(t, "-device", "127.0.0.1:1", "-log-level", "loud", anim)
		assert.Equal(t, 1, code)
	})
}

func TestSendDryRun(t *testing.T) {
	anim := writeTemp(t, "anim.yaml", testAnimation)

	code, stdout, _ := runCmd(t, "-dry-run", anim)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "1x2, 2 frames")
	assert.Contains(t, stdout, "#0000ff")
	assert.Contains(t, stdout, "#0a141e")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCmd(t, "-version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "retroframe-send "+Version)
}
