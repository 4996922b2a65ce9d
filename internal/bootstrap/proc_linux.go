//go:build linux

package bootstrap

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// workerSysProcAttr asks the kernel to SIGTERM the worker when the
// bridge dies, so a headless Maquette cannot outlive its host.
func workerSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: unix.SIGTERM}
}
