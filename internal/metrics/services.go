package metrics

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/rtop/internal/exec"
)

// SystemctlBinary is the systemd control tool.
const SystemctlBinary = "systemctl"

var listUnitsArgs = []string{"list-units", "--type=service", "--all", "--no-legend", "--no-pager", "--plain"}

// parseServices parses systemctl list-units output:
// UNIT LOAD ACTIVE SUB DESCRIPTION...
func parseServices(output string) []Service {
	var services []Service
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Older systemd ignores --plain and marks failed units with a bullet
		if len(fields) > 0 && (fields[0] == "●" || fields[0] == "*") {
			fields = fields[1:]
		}
		if len(fields) < 4 {
			continue
		}
		services = append(services, Service{
			Unit:        fields[0],
			Load:        fields[1],
			Active:      fields[2],
			Sub:         fields[3],
			Description: strings.Join(fields[4:], " "),
		})
	}
	return services
}

// ServiceStatus returns `systemctl status UNIT` output. systemctl exits
// non-zero for inactive or failed units, so the exit code is ignored and
// stdout is followed by stderr.
func ServiceStatus(ctx context.Context, runner exec.Runner, unit string) (string, error) {
	res, err := runner.Run(ctx, nil, SystemctlBinary, "status", unit, "--no-pager", "--full")
	if err != nil {
		return "", err
	}

	out := strings.TrimRight(string(res.Stdout), "\n")
	if stderr := strings.TrimRight(string(res.Stderr), "\n"); stderr != "" {
		if out != "" {
			out += "\n"
		}
		out += stderr
	}
	if out == "" {
		return "", fmt.Errorf("systemctl status %s printed nothing (exit %d)", unit, res.ExitCode)
	}
	return out, nil
}
