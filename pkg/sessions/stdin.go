package sessions

import (
	"os"

	"github.com/dairui1/vibetunnel/errors"
)

// ChannelKind describes what CreateChannel put on disk.
type ChannelKind string

const (
	ChannelFIFO ChannelKind = "fifo"
	ChannelFile ChannelKind = "file"
)

// CreateChannel creates the stdin channel at path. A named pipe is preferred;
// when the platform or filesystem refuses one, an empty regular file is
// created instead and the PTY host polls it. Only a failed fallback is an error.
func CreateChannel(path string) (ChannelKind, error) {
	if err := makeFifo(path); err == nil {
		return ChannelFIFO, nil
	} else if os.IsExist(err) {
		if info, statErr := os.Stat(path); statErr == nil && info.Mode()&os.ModeNamedPipe != 0 {
			return ChannelFIFO, nil
		}
		return ChannelFile, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return "", err
	}
	return ChannelFile, f.Close()
}

// WriteChannel appends data to the stdin channel of session id. The channel
// must already exist; it is never created here. Writing to a pipe with no
// reader fails immediately instead of blocking.
func WriteChannel(id, path string, data []byte) error {
	f, err := openAppend(path)
	if err != nil {
		return errors.StdinWriteFailed(id, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.StdinWriteFailed(id, err)
	}
	if err := f.Close(); err != nil {
		return errors.StdinWriteFailed(id, err)
	}
	return nil
}

// ChannelKindOf inspects an existing channel.
func ChannelKindOf(path string) (ChannelKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeNamedPipe != 0 {
		return ChannelFIFO, nil
	}
	return ChannelFile, nil
}
