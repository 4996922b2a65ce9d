package bootstrap

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

type lookupPathFunc func(file string) (string, error)

// CheckWorker verifies the worker command resolves before spawning, so
// a missing binary fails fast instead of surfacing as a pipe error
// mid-handshake.
func CheckWorker(command string, args []string) error {
	return checkWorkerWithLookup(command, args, exec.LookPath)
}

func checkWorkerWithLookup(command string, args []string, lookup lookupPathFunc) error {
	if lookup == nil {
		lookup = exec.LookPath
	}

	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	if _, err := lookup(command); err != nil {
		return fmt.Errorf("worker command %q not found in PATH", command)
	}

	if filepath.Base(command) != "env" {
		return nil
	}
	wrapped := envWrappedCommand(args)
	if wrapped == "" {
		return nil
	}
	if _, err := lookup(wrapped); err != nil {
		return fmt.Errorf("worker command %q not found in PATH", wrapped)
	}
	return nil
}

// envWrappedCommand picks out the program an env(1) wrapper hands off
// to, skipping option flags and KEY=value assignments.
func envWrappedCommand(args []string) string {
	for i := 0; i < len(args); i++ {
		token := strings.TrimSpace(args[i])
		if token == "" {
			continue
		}
		if token == "--" {
			for _, rest := range args[i+1:] {
				rest = strings.TrimSpace(rest)
				if rest == "" {
					continue
				}
				if idx := strings.Index(rest, "="); idx > 0 {
					continue
				}
				return rest
			}
			return ""
		}
		if token == "-u" || token == "--unset" || token == "-C" || token == "--chdir" {
			if i+1 >= len(args) {
				return ""
			}
			i++
			continue
		}
		if strings.HasPrefix(token, "-") {
			continue
		}
		if idx := strings.Index(token, "="); idx > 0 {
			continue
		}
		return token
	}
	return ""
}
