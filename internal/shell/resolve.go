package shell

import (
	"bufio"
	"os"
	"os/exec"
	"strconv"
	"strings"

	rterrors "github.com/rileyhilliard/rtop/internal/errors"
)

// FallbackShell is used when nothing better can be found.
const FallbackShell = "/bin/sh"

// passwdFile is a variable so tests can point it at a fixture.
var passwdFile = "/etc/passwd"

// ResolveShell picks the shell binary to run. Candidates, in order:
// the configured path, $SHELL, the login shell of the current user in
// /etc/passwd, and /bin/sh. The first one that exec.LookPath accepts wins.
func ResolveShell(configured string) (string, error) {
	candidates := []string{
		configured,
		os.Getenv("SHELL"),
		loginShell(os.Getuid()),
		FallbackShell,
	}

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}

	return "", rterrors.New(rterrors.ErrPTY,
		"Couldn't find a shell to run",
		"Set shell.path in your config to an installed shell.")
}

// loginShell returns the shell field of uid's passwd entry, or "".
func loginShell(uid int) string {
	f, err := os.Open(passwdFile)
	if err != nil {
		return ""
	}
	defer f.Close()

	want := strconv.Itoa(uid)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// name:passwd:uid:gid:gecos:home:shell
		fields := strings.Split(line, ":")
		if len(fields) < 7 || fields[2] != want {
			continue
		}
		return fields[6]
	}
	return ""
}
