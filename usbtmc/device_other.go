//go:build !linux

package usbtmc

import (
	"fmt"
	"runtime"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/transport"
)

func openCharDevice(path string) (framer.Device, error) {
	return nil, fmt.Errorf("%w: usbtmc character devices are not supported on %s (%s)",
		transport.ErrConnection, runtime.GOOS, path)
}
