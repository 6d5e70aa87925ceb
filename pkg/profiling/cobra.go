package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/dairui1/vibetunnel/logging"
	"github.com/spf13/cobra"
)

// Flags holds the profiling options of a command tree.
type Flags struct {
	cpuPath string
	memPath string
	timing  bool

	cpuFile *os.File
}

// Attach adds hidden --timing, --cpu-profile and --mem-profile flags to root
// and installs the hooks that act on them. It chains to any persistent hooks
// already set on root.
func Attach(root *cobra.Command) *Flags {
	f := &Flags{}

	pf := root.PersistentFlags()
	pf.BoolVar(&f.timing, "timing", false, "Print a timing summary to stderr on exit")
	pf.StringVar(&f.cpuPath, "cpu-profile", "", "Write a CPU profile to this file")
	pf.StringVar(&f.memPath, "mem-profile", "", "Write a heap profile to this file")
	for _, name := range []string{"timing", "cpu-profile", "mem-profile"} {
		_ = pf.MarkHidden(name)
	}

	prevPre, prevPost := root.PersistentPreRunE, root.PersistentPostRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := f.start(); err != nil {
			return err
		}
		if prevPre != nil {
			return prevPre(cmd, args)
		}
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		if prevPost != nil {
			err = prevPost(cmd, args)
		}
		f.stop(cmd)
		return err
	}

	return f
}

func (f *Flags) start() error {
	if f.timing {
		Enable()
	}
	if f.cpuPath == "" {
		return nil
	}

	file, err := os.Create(f.cpuPath)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		file.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	f.cpuFile = file
	return nil
}

func (f *Flags) stop(cmd *cobra.Command) {
	logger := logging.NewLogger("profiling")

	if f.cpuFile != nil {
		pprof.StopCPUProfile()
		f.cpuFile.Close()
		f.cpuFile = nil
		logger.WithField("path", f.cpuPath).Info("CPU profile written")
	}

	if f.memPath != "" {
		file, err := os.Create(f.memPath)
		if err != nil {
			logger.WithError(err).Warn("Could not create heap profile")
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(file); err != nil {
				logger.WithError(err).Warn("Could not write heap profile")
			}
			file.Close()
		}
	}

	if f.timing {
		Summarize(cmd.ErrOrStderr())
	}
}
