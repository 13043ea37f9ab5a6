package dynsym

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Mapping is one executable file-backed line of /proc/<pid>/maps.
type Mapping struct {
	Start  uintptr
	Offset uintptr
	Perms  string
	Path   string
}

// ReadProcMaps returns the executable file mappings of pid. A pid of 0 reads
// the current process.
func ReadProcMaps(pid int) ([]Mapping, error) {
	path := "/proc/self/maps"
	if pid > 0 {
		path = "/proc/" + strconv.Itoa(pid) + "/maps"
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseProcMaps(string(raw)), nil
}

// ParseProcMaps parses the maps format, keeping executable mappings of
// absolute paths. Malformed lines are skipped.
func ParseProcMaps(raw string) []Mapping {
	var entries []Mapping
	for _, line := range strings.Split(raw, "\n") {
		if m, ok := parseMapping(line); ok {
			entries = append(entries, m)
		}
	}
	return entries
}

// parseMapping parses "start-end perms offset dev inode [path]".
func parseMapping(line string) (Mapping, bool) {
	fields := strings.Fields(line)
	if len(fields) < 6 || !strings.Contains(fields[1], "x") {
		return Mapping{}, false
	}

	startHex, _, ok := strings.Cut(fields[0], "-")
	if !ok {
		return Mapping{}, false
	}
	start, err := parseHexUintptr(startHex)
	if err != nil {
		return Mapping{}, false
	}
	offset, err := parseHexUintptr(fields[2])
	if err != nil {
		return Mapping{}, false
	}

	path := strings.TrimSuffix(strings.Join(fields[5:], " "), " (deleted)")
	if !strings.HasPrefix(path, "/") {
		return Mapping{}, false
	}
	return Mapping{Start: start, Offset: offset, Perms: fields[1], Path: path}, true
}

// Provider is a mapped object that defines a symbol.
type Provider struct {
	Path   string
	Base   uintptr
	Offset uintptr
}

// Providers returns, in mapping order, every distinct mapped object of pid
// that defines symbol. Objects that cannot be parsed are skipped.
func Providers(pid int, symbol string) ([]Provider, error) {
	mappings, err := ReadProcMaps(pid)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var providers []Provider
	for _, m := range mappings {
		if seen[m.Path] {
			continue
		}
		seen[m.Path] = true

		off, err := FindExport(m.Path, symbol)
		if err != nil {
			continue
		}
		base := uintptr(0)
		if m.Start >= m.Offset {
			base = m.Start - m.Offset
		}
		providers = append(providers, Provider{Path: m.Path, Base: base, Offset: off})
	}
	return providers, nil
}

func parseHexUintptr(s string) (uintptr, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex string %q: %w", s, err)
	}
	return uintptr(v), nil
}
