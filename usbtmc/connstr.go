package usbtmc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// parseConnectionString splits "path[:transferSize]". A zero transfer size
// means none was given. Only an all-digit suffix is a transfer size, so paths
// containing ':' (udev by-path links) are kept whole.
func parseConnectionString(args string) (path string, transferSize int, err error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", 0, errors.New("usbtmc: empty connection string")
	}

	path = args
	if i := strings.LastIndexByte(args, ':'); i >= 0 && isDigits(args[i+1:]) {
		path = args[:i]

		size, err := strconv.Atoi(args[i+1:])
		if err != nil || size <= 0 {
			return "", 0, fmt.Errorf("usbtmc: invalid transfer size %q in connection string %q", args[i+1:], args)
		}
		transferSize = size
	}

	if path == "" {
		return "", 0, fmt.Errorf("usbtmc: missing device path in connection string %q", args)
	}

	return path, transferSize, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
