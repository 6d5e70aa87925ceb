package cli

import (
	"github.com/dairui1/vibetunnel/config"
	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds the options shared by every vt command.
type CommandOptions struct {
	ConfigFile string
	ControlDir string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard vt flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to vibetunnel.yml or vibetunnel.toml")
	cmd.PersistentFlags().String("control-dir", "", "Session control directory (default ~/.vibetunnel/control)")

	SetStyledHelp(cmd)

	return cmd
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	controlDir, _ := cmd.Flags().GetString("control-dir")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		ControlDir: controlDir,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the file named by --config, or the default config file
// when the flag is empty. The logging section of the result is applied to
// every logger created afterwards, and --verbose raises the level to debug.
func LoadConfig(opts CommandOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.Load(opts.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	logCfg := logging.ConfigFrom(cfg)
	if opts.Verbose {
		logCfg.Level = logrus.DebugLevel.String()
		logCfg.Format.StructuredToStderr = "always"
	}
	logging.SetConfig(logCfg)

	return cfg, nil
}

// ResolveControlDir loads config and applies the --control-dir precedence.
func ResolveControlDir(cmd *cobra.Command) (string, *config.Config, error) {
	opts := GetOptions(cmd)
	cfg, err := LoadConfig(opts)
	if err != nil {
		return "", nil, err
	}

	root, err := config.ResolveControlDir(opts.ControlDir, cfg)
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

// GetLogger returns the component logger for a command.
func GetLogger(cmd *cobra.Command, component string) *logrus.Entry {
	return logging.NewLogger(component).WithField("command", cmd.Name())
}

// ExactArgs is cobra.ExactArgs with a coded error.
func ExactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "wrong number of arguments").
				WithDetail("usage", cmd.UseLine())
		}
		return nil
	}
}
