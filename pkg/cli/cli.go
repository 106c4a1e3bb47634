// Package cli wires configuration, logging and the conversion commands.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gmailfilter2csv/pkg/config"
	"gmailfilter2csv/pkg/convert"
	"gmailfilter2csv/pkg/logger"
	"gmailfilter2csv/pkg/version"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		slog.Default().Error("gmailfilter2csv failed", "error", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree. Running it without a subcommand converts.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:               "gmailfilter2csv [input] [output]",
		Short:             "Convert a Gmail filter export to a semicolon separated file",
		Version:           version.Version,
		Args:              cobra.MaximumNArgs(2),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runConvert,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "path to a TOML config file (default $"+config.EnvVar+")")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "stderr", "log destination: stderr, stdout or a file path")
	flags.Bool("quote", false, "quote fields that contain the delimiter, quotes or line breaks")
	flags.String("null-value", "", "text written for fields missing from an entry")
	flags.String("line-ending", "lf", "line ending: lf or crlf")
	bindFlags(a.v, flags, map[string]string{
		"logging.level":        "log-level",
		"logging.file":         "log-file",
		"convert.quote_fields": "quote",
		"convert.null_value":   "null-value",
		"convert.line_ending":  "line-ending",
	})

	root.AddCommand(
		&cobra.Command{
			Use:   "convert [input] [output]",
			Short: "Convert a Gmail filter export (the default command)",
			Long: "Convert reads the mailFilters.xml export from a file, an http(s) URL or \"-\" for stdin\n" +
				"and writes one line per filter to a file or \"-\" for stdout.",
			Args: cobra.MaximumNArgs(2),
			RunE: a.runConvert,
		},
		a.fetchCommand(),
		versionCommand(),
	)

	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logger.Setup(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	input, output := a.cfg.Convert.Input, a.cfg.Convert.Output
	if len(args) > 0 {
		input = args[0]
	}
	if len(args) > 1 {
		output = args[1]
	}

	res, err := convert.Convert(cmd.Context(), input, output, a.options(cmd))
	if err != nil {
		return err
	}
	return printCompleted(statusWriter(cmd, output), res)
}

func (a *app) options(cmd *cobra.Command) convert.Options {
	return convert.Options{
		Quote:      a.cfg.Convert.QuoteFields,
		NullValue:  a.cfg.Convert.NullValue,
		LineEnding: a.cfg.Convert.LineEnding,
		Stdin:      cmd.InOrStdin(),
		Stdout:     cmd.OutOrStdout(),
		Logger:     a.log,
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("gmailfilter2csv " + version.Version + "\n"))
			return err
		},
	}
}
