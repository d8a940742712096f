package supervisor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// DefaultPIDFile is where serve records its process id.
const DefaultPIDFile = "sentimesh.pid"

// WritePIDFile records the current process id.
func WritePIDFile(path string) error {
	if path == "" {
		path = DefaultPIDFile
	}
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write pid file %s: %w", path, err)
	}
	return nil
}

// RemovePIDFile deletes the pid file; a missing file is not an error.
func RemovePIDFile(path string) error {
	if path == "" {
		path = DefaultPIDFile
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pid file %s: %w", path, err)
	}
	return nil
}

// ReadPIDFile returns the recorded process id.
func ReadPIDFile(path string) (int, error) {
	if path == "" {
		path = DefaultPIDFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pid file %s: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", path, err)
	}
	return pid, nil
}

// StopRunning signals the recorded process to terminate and removes the
// pid file.
func StopRunning(path string) error {
	pid, err := ReadPIDFile(path)
	if err != nil {
		return err
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process %d not found: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return RemovePIDFile(path)
}
