package shutdown

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"mentorhub/pkg/logger"
)

type exitRequest struct {
	Time      string `json:"time"`
	Reason    string `json:"reason"`
	CrashPath string `json:"crash_path,omitempty"`
	PID       int    `json:"pid"`
}

// Abort logs a fatal startup error, writes a crash dump under the store
// path and exits. The short delay lets log sinks flush.
func Abort(contextMsg string, err error, dbPath string) {
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	dumpPath, derr := writeCrashDump(dbPath, contextMsg, err)
	if derr != nil {
		logger.Error("crash_dump_failed", "error", derr)
		fmt.Fprintf(os.Stderr, "failed to write crash dump: %v\n", derr)
	} else {
		logger.Info("crash_dump_written", "path", dumpPath)
	}
	time.Sleep(2 * time.Second)
	os.Exit(2)
}

// writeCrashDump records the failure reason, environment and goroutine
// stacks, plus a machine-readable exit request referencing the dump.
func writeCrashDump(dbPath, reason string, cause error) (string, error) {
	crashDir := "./crash"
	if dbPath != "" {
		crashDir = filepath.Join(dbPath, "state", "crash")
	}
	if err := os.MkdirAll(crashDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create crash dir: %w", err)
	}

	ts := time.Now().UnixNano()
	dumpPath := filepath.Join(crashDir, fmt.Sprintf("crash-%d.log", ts))

	f, err := os.CreateTemp(crashDir, ".crash-*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := f.Name()
	defer func() { _ = os.Remove(tmpName) }()

	fmt.Fprintf(f, "time: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(f, "reason: %s\n", reason)
	fmt.Fprintf(f, "error: %v\n", cause)
	fmt.Fprintf(f, "\n--- goroutine stacks ---\n")
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	_, _ = f.Write(buf[:n])
	_ = f.Sync()
	_ = f.Close()

	if err := os.Rename(tmpName, dumpPath); err != nil {
		return "", fmt.Errorf("failed to move crash dump into place: %w", err)
	}
	_ = os.Chmod(dumpPath, 0o600)

	req := exitRequest{
		Time:      time.Now().UTC().Format(time.RFC3339),
		Reason:    reason,
		CrashPath: dumpPath,
		PID:       os.Getpid(),
	}
	if b, err := json.MarshalIndent(req, "", "  "); err == nil {
		reqPath := filepath.Join(crashDir, fmt.Sprintf("req-%d.json", ts))
		_ = os.WriteFile(reqPath, b, 0o600)
	}
	return dumpPath, nil
}
