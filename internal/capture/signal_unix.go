//go:build unix

package capture

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func signalOf(ps *os.ProcessState) (string, int) {
	status, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return "", 0
	}
	sig := status.Signal()
	name := unix.SignalName(sig)
	if name == "" {
		name = sig.String()
	}
	return name, int(sig)
}
