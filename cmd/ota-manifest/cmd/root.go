package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/ota-manifest/internal/config"
	"github.com/oshokin/ota-manifest/internal/logger"
	"github.com/oshokin/ota-manifest/internal/service/manifest"
	"github.com/oshokin/ota-manifest/internal/version"
)

// usageLine is printed when no base path is given.
const usageLine = "usage: ota-manifest /path/to/mirror/base/url"

// flags holds the command line values layered over the config file.
type flags struct {
	configPath string
	outputPath string
	prefix     string
	logLevel   string
	keep       int
	blockSize  int
	exclusive  bool
}

// NewRootCommand builds the ota-manifest command with its flags and subcommands.
func NewRootCommand() *cobra.Command {
	f := new(flags)

	root := &cobra.Command{
		Use:   "ota-manifest [base-path]",
		Short: "Prune old OTA builds and print the mirror manifest",
		Long: "Keep the most recent builds of every device under <base-path>/full, " +
			"hash the retained packages and images, and print a JSON manifest of all retained builds.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), usageLine)
				return nil
			}

			if len(args) > 1 {
				logger.WarnKV(cmd.Context(), "Ignoring extra arguments", "arguments", args[1:])
			}

			cfg, err := f.resolve(cmd)
			if err != nil {
				return err
			}

			if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
				logger.SetLevel(level)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return manifest.Run(ctx, &manifest.Options{
				BasePath:   args[0],
				Config:     cfg,
				OutputPath: f.outputPath,
				Stdout:     cmd.OutOrStdout(),
			})
		},
	}

	// Setup command flags with consistent naming and descriptions.
	root.Flags().StringVarP(&f.configPath, "config", "c", "", "path to an optional YAML configuration file")
	root.Flags().StringVarP(&f.outputPath, "output", "o", "", "write the manifest to this file instead of stdout")
	root.Flags().StringVar(&f.prefix, "prefix", config.DefaultPrefix, "directory under the base path holding one directory per device")
	root.Flags().StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "minimum level of diagnostics written to stderr")
	root.Flags().IntVarP(&f.keep, "keep", "k", config.DefaultKeep, "number of most recent builds kept per device")
	root.Flags().IntVar(&f.blockSize, "block-size", config.DefaultBlockSize, "read size in bytes used while hashing")
	root.Flags().BoolVar(&f.exclusive, "exclusive", false, "refuse to run while another instance is alive")

	version.AttachCobraVersionCommand(root)

	return root
}

// resolve loads the config file and applies the flags set on the command line.
func (f *flags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed

	if changed("prefix") {
		cfg.Prefix = f.prefix
	}

	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if changed("keep") {
		cfg.Keep = f.keep
	}

	if changed("block-size") {
		cfg.BlockSize = f.blockSize
	}

	if changed("exclusive") {
		cfg.Exclusive = f.exclusive
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Execute runs the ota-manifest CLI and exits with non-zero status on error.
func Execute() {
	err := NewRootCommand().ExecuteContext(context.Background())

	logger.Sync()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
