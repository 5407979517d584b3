package metrics

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// psArgs lists every process in BSD format:
// USER PID %CPU %MEM VSZ RSS TTY STAT START TIME COMMAND
var psArgs = []string{"aux"}

// parseProcesses parses ps aux output. Lines that do not parse are skipped.
func parseProcesses(output string) ([]Process, error) {
	var procs []Process
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	// Header line
	scanner.Scan()

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 11 {
			continue
		}

		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		cpu, _ := strconv.ParseFloat(fields[2], 64)
		mem, _ := strconv.ParseFloat(fields[3], 64)
		rssKB, _ := strconv.ParseInt(fields[5], 10, 64)

		procs = append(procs, Process{
			PID:     pid,
			User:    fields[0],
			CPU:     cpu,
			Memory:  mem,
			RSS:     rssKB * 1024,
			State:   fields[7],
			Time:    fields[9],
			Command: strings.Join(fields[10:], " "),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning ps output: %w", err)
	}
	return procs, nil
}

// SortOrder is the process table ordering.
type SortOrder int

const (
	SortCPU SortOrder = iota
	SortMemory
	SortPID
	SortName
)

var sortOrders = []SortOrder{SortCPU, SortMemory, SortPID, SortName}

func (s SortOrder) String() string {
	switch s {
	case SortMemory:
		return "memory"
	case SortPID:
		return "pid"
	case SortName:
		return "name"
	default:
		return "cpu"
	}
}

// Next returns the order after s, wrapping around.
func (s SortOrder) Next() SortOrder {
	return sortOrders[(int(s)+1)%len(sortOrders)]
}

// SortProcesses returns a sorted copy of procs. CPU and memory sort
// descending, pid and name ascending; ties fall back to pid.
func SortProcesses(procs []Process, order SortOrder) []Process {
	out := make([]Process, len(procs))
	copy(out, procs)

	less := func(a, b Process) bool {
		switch order {
		case SortCPU:
			if a.CPU != b.CPU {
				return a.CPU > b.CPU
			}
		case SortMemory:
			if a.RSS != b.RSS {
				return a.RSS > b.RSS
			}
		case SortName:
			an, bn := strings.ToLower(a.Command), strings.ToLower(b.Command)
			if an != bn {
				return an < bn
			}
		}
		return a.PID < b.PID
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ErrNoProcess means the process exited before its details were read.
var ErrNoProcess = errors.New("process no longer exists")

// ProcessDetails renders the /proc view of one process as text lines.
// Fields the caller may not read (another user's exe or cwd) show as
// "(permission denied)".
func ProcessDetails(procRoot string, pid int) (string, error) {
	dir := filepath.Join(procRoot, strconv.Itoa(pid))

	statusRaw, err := os.ReadFile(filepath.Join(dir, "status"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
		}
		return "", fmt.Errorf("read status of pid %d: %w", pid, err)
	}
	status := parseStatus(string(statusRaw))

	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%-16s %s\n", label+":", value)
	}

	row("PID", strconv.Itoa(pid))
	row("Name", status["Name"])
	row("State", status["State"])
	row("Parent PID", status["PPid"])
	row("User", ownerName(firstField(status["Uid"])))
	row("Group", groupName(firstField(status["Gid"])))
	row("Threads", status["Threads"])

	if prio, nice, ok := readPriority(filepath.Join(dir, "stat")); ok {
		row("Priority", prio)
		row("Nice", nice)
	}

	row("Virtual memory", kbField(status["VmSize"]))
	row("Resident memory", kbField(status["VmRSS"]))
	row("Executable", readLink(filepath.Join(dir, "exe")))
	row("Working dir", readLink(filepath.Join(dir, "cwd")))
	row("Open files", countFDs(filepath.Join(dir, "fd")))

	cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline"))
	if err == nil {
		args := strings.Split(strings.TrimRight(string(cmdline), "\x00"), "\x00")
		row("Command line", strings.Join(args, " "))
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// parseStatus maps "Key:\tvalue" lines of /proc/<pid>/status.
func parseStatus(content string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

// readPriority returns fields 18 and 19 of /proc/<pid>/stat. The command
// name in field 2 may contain spaces, so counting starts after the last ')'.
func readPriority(path string) (prio, nice string, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", false
	}
	s := string(data)
	end := strings.LastIndexByte(s, ')')
	if end < 0 {
		return "", "", false
	}
	// fields[0] is the state (field 3)
	fields := strings.Fields(s[end+1:])
	if len(fields) < 17 {
		return "", "", false
	}
	return fields[15], fields[16], true
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func ownerName(uid string) string {
	if uid == "" {
		return ""
	}
	if u, err := user.LookupId(uid); err == nil {
		return fmt.Sprintf("%s (%s)", u.Username, uid)
	}
	return uid
}

func groupName(gid string) string {
	if gid == "" {
		return ""
	}
	if g, err := user.LookupGroupId(gid); err == nil {
		return fmt.Sprintf("%s (%s)", g.Name, gid)
	}
	return gid
}

// kbField turns "12345 kB" into a human size.
func kbField(s string) string {
	kb, err := strconv.ParseUint(firstField(s), 10, 64)
	if err != nil {
		return s
	}
	return humanize.IBytes(kb * 1024)
}

func readLink(path string) string {
	target, err := os.Readlink(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "(permission denied)"
		}
		return ""
	}
	return target
}

func countFDs(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "(permission denied)"
		}
		return ""
	}
	return strconv.Itoa(len(entries))
}
