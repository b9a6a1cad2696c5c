//go:build !unix

package capture

import "os"

func signalOf(ps *os.ProcessState) (string, int) {
	return "", 0
}
