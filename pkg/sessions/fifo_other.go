//go:build !unix

package sessions

import (
	"errors"
	"os"
)

var errFifoUnsupported = errors.New("named pipes are not supported on this platform")

func makeFifo(path string) error {
	return errFifoUnsupported
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
}
