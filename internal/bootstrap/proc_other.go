//go:build !linux

package bootstrap

import "syscall"

// workerSysProcAttr is a no-op where parent-death signals are not
// available; the worker still sees EOF on stdin when the bridge exits.
func workerSysProcAttr() *syscall.SysProcAttr {
	return nil
}
