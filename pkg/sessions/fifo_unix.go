//go:build unix

package sessions

import (
	"os"

	"golang.org/x/sys/unix"
)

func makeFifo(path string) error {
	err := unix.Mkfifo(path, 0600)
	if err == unix.EEXIST {
		return os.ErrExist
	}
	return err
}

// openAppend opens path for appending without creating it. O_NONBLOCK makes
// opening a FIFO with no reader fail with ENXIO rather than hang; blocking
// mode is restored before any write.
func openAppend(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_APPEND|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, &os.PathError{Op: "fcntl", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}
