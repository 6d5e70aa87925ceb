package ptyhost

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/sirupsen/logrus"
)

// pumpInput copies the stdin channel into the terminal until ctx is done.
func pumpInput(ctx context.Context, path string, dst io.Writer, poll time.Duration, log *logrus.Entry) {
	if poll <= 0 {
		poll = defaultPollInterval
	}

	kind, err := sessions.ChannelKindOf(path)
	if err != nil {
		log.WithError(err).Warn("No stdin channel; input disabled")
		return
	}

	if kind == sessions.ChannelFIFO {
		pumpFIFO(ctx, path, dst, poll, log)
		return
	}
	pumpFile(ctx, path, dst, poll, log)
}

// pumpFIFO holds the pipe open read-write, so writers may come and go
// without the reader ever seeing EOF. If the pipe does end or fail it is
// reopened.
func pumpFIFO(ctx context.Context, path string, dst io.Writer, poll time.Duration, log *logrus.Entry) {
	for ctx.Err() == nil {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			log.WithError(err).Debug("Failed to open stdin pipe")
			if !sleep(ctx, poll) {
				return
			}
			continue
		}

		stop := context.AfterFunc(ctx, func() { f.Close() })
		_, err = io.Copy(dst, f)
		stop()
		f.Close()

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.WithError(err).Debug("Stdin pipe read failed, reopening")
		}
		if !sleep(ctx, poll) {
			return
		}
	}
}

// pumpFile polls a plain-file channel and forwards whatever was appended
// since the last check.
func pumpFile(ctx context.Context, path string, dst io.Writer, poll time.Duration, log *logrus.Entry) {
	var offset int64
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := forwardFrom(path, offset, dst)
		offset += n
		if err != nil {
			log.WithError(err).Debug("Stdin file read failed")
		}
	}
}

func forwardFrom(path string, offset int64, dst io.Writer) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.Size() <= offset {
		return 0, nil
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	return io.CopyN(dst, f, info.Size()-offset)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
