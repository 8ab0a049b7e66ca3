package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-sdboot/bootloader"
	"github.com/moffa90/go-sdboot/sim"
)

type session struct {
	t      *testing.T
	device string
	card   string
}

func newSession(t *testing.T) *session {
	dir := t.TempDir()
	return &session{
		t:      t,
		device: filepath.Join(dir, "device.cbor"),
		card:   filepath.Join(dir, "card"),
	}
}

func (s *session) run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--device", s.device, "--card", s.card, "--max-rows", "8", "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *session) file(name string, data []byte) string {
	p := filepath.Join(filepath.Dir(s.device), name)
	require.NoError(s.t, os.WriteFile(p, data, 0o644))
	return p
}

func image(size int, fill byte) []byte {
	img := bytes.Repeat([]byte{fill}, size)
	copy(img, []byte{0x00, 0x80, 0x00, 0x20, 0x35, 0x21, 0x01, 0x00})
	return img
}

func TestBootSession(t *testing.T) {
	s := newSession(t)
	app := s.file("app.bin", image(512, 0x11))
	update := s.file("update.bin", image(1000, 0x22))

	out, err := s.run("init", "--app", app)
	require.NoError(t, err)
	assert.Contains(t, out, "rows=8")

	_, err = s.run("init")
	assert.ErrorContains(t, err, "already exists")

	out, err = s.run("stage", "--slot", "b", update)
	require.NoError(t, err)
	assert.Contains(t, out, "Slot B: TestB.bin (1000 bytes)")
	assert.FileExists(t, filepath.Join(s.card, "FlagB.txt"))

	out, err = s.run("boot", "--flush-delay", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Boot finished: handoff")
	assert.Contains(t, out, "slot B, 1000 bytes, 8/8 rows, 0 failed")
	assert.Contains(t, out, "sp=0x20008000 reset=0x00012135")
	assert.NoFileExists(t, filepath.Join(s.card, "FlagB.txt"))
	assert.FileExists(t, filepath.Join(s.card, "sd_mmc_test.txt"))

	dev, err := sim.LoadFile(s.device)
	require.NoError(t, err)
	assert.Equal(t, image(1000, 0x22), dev.Flash.Bytes(dev.Layout.Base, 1000))
	assert.Equal(t, 1, dev.CPU.State().Handoffs)

	out, err = s.run("boot", "--flush-delay", "0", "--skip-self-test")
	require.NoError(t, err)
	assert.Contains(t, out, "none requested")

	out, err = s.run("dump", "--row", "3", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Row 3 @ 0x00012300")
	assert.Contains(t, out, "Row 4 @ 0x00012400 crc=0x")
	assert.Contains(t, out, "erased")
	assert.Contains(t, out, "handoffs=2")
}

func TestBootMissingCardResets(t *testing.T) {
	s := newSession(t)
	_, err := s.run("init")
	require.NoError(t, err)
	require.NoError(t, os.Remove(s.card))

	out, err := s.run("boot", "--reset-delay", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Boot finished: reset")
	assert.Contains(t, out, "resets=1")
}

func TestStageRejectsUnknownSlot(t *testing.T) {
	s := newSession(t)
	img := s.file("x.bin", image(16, 0))
	_, err := s.run("stage", "--slot", "c", img)
	assert.ErrorContains(t, err, "unknown slot")
}

func TestDumpRejectsRow(t *testing.T) {
	s := newSession(t)
	_, err := s.run("init")
	require.NoError(t, err)
	_, err = s.run("dump", "--row", "8")
	assert.ErrorContains(t, err, "outside")
}

func TestRootDefaultsToDebugLog(t *testing.T) {
	root := newRootCmd()
	f := root.PersistentFlags().Lookup("log-level")
	require.NotNil(t, f)
	assert.Equal(t, "debug", f.DefValue)
}

// failingView fails to start and records what it was sent.
type failingView struct {
	mu   sync.Mutex
	sent []tea.Msg
}

func (v *failingView) Run() (tea.Model, error) {
	return nil, errors.New("no tty")
}

func (v *failingView) Send(msg tea.Msg) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sent = append(v.sent, msg)
}

func TestRunUnderViewWaitsForBoot(t *testing.T) {
	view := &failingView{}
	finished := false
	want := &bootloader.Report{Final: bootloader.StateHandoff}

	rep, err := runUnderView(view, func() *bootloader.Report {
		time.Sleep(20 * time.Millisecond)
		finished = true
		return want
	})

	assert.ErrorContains(t, err, "no tty")
	assert.True(t, finished)
	assert.Same(t, want, rep)
	assert.Len(t, view.sent, 1)
}
