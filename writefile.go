package luahook

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// openFlags maps a C stdio mode string to open(2) flags.
func openFlags(mode string) (int, error) {
	switch strings.ReplaceAll(mode, "b", "") {
	case "r+":
		return unix.O_RDWR, nil
	case "w":
		return unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC, nil
	case "w+":
		return unix.O_RDWR | unix.O_CREAT | unix.O_TRUNC, nil
	case "a":
		return unix.O_WRONLY | unix.O_CREAT | unix.O_APPEND, nil
	case "a+":
		return unix.O_RDWR | unix.O_CREAT | unix.O_APPEND, nil
	default:
		return 0, fmt.Errorf("unsupported file mode %q", mode)
	}
}

// WriteFile writes content to path opened with a stdio-style mode. It
// succeeds only if every byte was written and the file closed cleanly.
func WriteFile(path string, content string, mode string) error {
	if path == "" {
		return errors.New("empty path")
	}
	flags, err := openFlags(mode)
	if err != nil {
		return err
	}

	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	data := []byte(content)
	written := 0
	for written < len(data) {
		n, err := unix.Write(fd, data[written:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			_ = unix.Close(fd)
			return fmt.Errorf("write %s: %w", path, err)
		}
		if n <= 0 {
			_ = unix.Close(fd)
			return fmt.Errorf("write %s: short write (%d/%d)", path, written, len(data))
		}
		written += n
	}

	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
