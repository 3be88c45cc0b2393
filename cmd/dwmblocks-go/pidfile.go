package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opd-ai/go-dwmblocks/internal/signals"
)

const pidFileName = "dwmblocks-go.pid"

// pidFilePath returns the PID file location: $XDG_RUNTIME_DIR when set,
// the temp dir otherwise.
func pidFilePath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, pidFileName)
}

// writePIDFile writes pid through a temp file and rename so a concurrent
// -signal never reads a partial file.
func writePIDFile(path string, pid int) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename pid file: %w", err)
	}
	return nil
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("no running instance (pid file %s not found)", path)
		}
		return 0, fmt.Errorf("failed to read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed pid file %s", path)
	}
	return pid, nil
}

// removePIDFile deletes the file only while it still names pid, so a
// second instance that took over the file keeps it.
func removePIDFile(path string, pid int) {
	if got, err := readPIDFile(path); err == nil && got == pid {
		os.Remove(path)
	}
}

// runningInstance returns the pid of a live instance recorded in path.
func runningInstance(path string) (int, bool) {
	pid, err := readPIDFile(path)
	if err != nil {
		return 0, false
	}
	return pid, signals.Alive(pid)
}
