package supervisor

import (
	"os/exec"
	"strings"
)

// buildCommand constructs an *exec.Cmd for a command line. Plain commands are
// split on whitespace and executed directly; anything carrying shell
// metacharacters is handed to the platform shell. An explicit "sh -c" prefix
// is honored without adding a second shell layer.
func buildCommand(line string) *exec.Cmd {
	line = strings.TrimSpace(line)
	if script, ok := parseExplicitShell(line); ok {
		return shellCommand(script)
	}
	if strings.ContainsAny(line, "|&;<>*?`$\"'(){}[]~") {
		return shellCommand(line)
	}
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	// #nosec G204
	return exec.Command(parts[0], parts[1:]...)
}

// parseExplicitShell detects "sh -c <ARG>" style prefixes and returns ARG with
// one pair of surrounding quotes removed.
func parseExplicitShell(line string) (string, bool) {
	for _, p := range []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "} {
		if !strings.HasPrefix(line, p) {
			continue
		}
		after := line[len(p):]
		if n := len(after); n >= 2 {
			if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
				after = after[1 : n-1]
			}
		}
		return after, true
	}
	return "", false
}
