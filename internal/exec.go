package internal

import (
	"os/exec"
	"syscall"
)

// runDetached starts a shell command in its own session so it survives
// the panel exiting. Failures are logged and otherwise invisible.
func runDetached(command string) {
	if command == "" {
		return
	}
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		Error("Failed to start %q: %v", command, err)
		return
	}
	Debug("Started %q (pid %d)", command, cmd.Process.Pid)
	go func() {
		_ = cmd.Wait()
	}()
}
