// Package cli wires the ctf-datagen commands onto cobra.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/delivery/cli/ui"
	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/pkg/metrics"
	"github.com/isectech/ctf-datagen/shared/common"
)

const version = "0.3.0"

// app carries state shared by every command once configuration is loaded
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// flagBindings maps persistent flags to configuration keys
var flagBindings = map[string]string{
	"seed":           "generator.seed",
	"reference-time": "generator.reference_time",
	"parallelism":    "generator.parallelism",
	"verify":         "generator.verify",
	"output":         "output.directory",
	"format":         "output.format",
	"compression":    "output.compression",
	"log-level":      "logging.level",
	"metrics":        "metrics.enabled",
	"metrics-file":   "metrics.textfile_path",
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: viper.New()})
}

func newRootCommand(a *app) *cobra.Command {

	root := &cobra.Command{
		Use:     "ctf-datagen",
		Short:   "Synthetic telemetry datasets for KQL exercises",
		Version: version,
		Long: `Generates synthetic cloud security telemetry (sign-ins, security events,
Azure activity, network flows, alerts) for the KQL Kung Fu exercises. Each
dataset hides its flag so that exactly one query technique reveals it.

Output is deterministic for a given seed and reference time.`,
		Example: `  # List exercises
  $ ctf-datagen list --details

  # Generate one exercise into ./samples
  $ ctf-datagen generate hello-kql

  # Generate everything, reproducibly, as compressed msgpack
  $ ctf-datagen generate --all --seed 7 --reference-time 2024-03-01T12:00:00Z \
      --format msgpack --compression lz4 -o ./out --metrics --metrics-file run.prom

  # Re-check datasets on disk
  $ ctf-datagen verify ./out`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Cleanup()
			}
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate(fmt.Sprintf("ctf-datagen version %s\n", version))
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return common.WrapError(err, common.ErrCodeInvalidInput, "invalid flags")
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (default ./config/ctf-datagen.yaml)")
	flags.Int64("seed", 42, "random seed")
	flags.String("reference-time", "", "RFC3339 instant timestamps are relative to (default now)")
	flags.IntP("parallelism", "p", 4, "exercises generated concurrently")
	flags.Bool("verify", true, "check flag placement before writing")
	flags.StringP("output", "o", "./samples", "output directory")
	flags.String("format", config.FormatJSON, "table file format: json or msgpack")
	flags.String("compression", config.CompressionNone, "table file compression: none or lz4")
	flags.String("log-level", "info", "log level")
	flags.Bool("metrics", false, "export run metrics")
	flags.String("metrics-file", "", "prometheus textfile written when metrics are enabled")
	if err := bindFlags(a.v, flags); err != nil {
		panic(err)
	}

	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newVerifyCmd(a))

	root.SetUsageTemplate(usageTemplate())
	root.SetHelpTemplate(usageTemplate())
	return root
}

// Execute runs the CLI and prints any error. The returned error carries the
// exit status through common.ExitCodeOf.
func Execute(ctx context.Context, args []string) error {
	a := &app{v: viper.New()}
	root := newRootCommand(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		ui.PrintError("%v", err)
		a.logFailure(err)
	}
	return err
}

// logFailure records where an application error was raised
func (a *app) logFailure(err error) {
	if a.logger == nil {
		return
	}
	defer a.logger.Cleanup()

	appErr := common.GetAppError(err)
	if appErr == nil {
		a.logger.Debug("Command failed", logging.Error(err))
		return
	}
	a.logger.Debug("Command failed",
		logging.String("code", string(appErr.Code)),
		logging.Int("exit_code", appErr.ExitCode()),
		logging.String("stack", appErr.Stack))
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (a *app) setup() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return common.WrapError(err, common.ErrCodeInvalidInput, "invalid configuration")
	}
	a.cfg = cfg

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return common.WrapError(err, common.ErrCodeInvalidInput, "invalid logging configuration")
	}
	a.logger = logger
	a.metrics = metrics.NewCollector(cfg.Metrics.Namespace)
	return nil
}

// flushMetrics writes the textfile when metrics are enabled and a path is set
func (a *app) flushMetrics() {
	path := a.cfg.Metrics.TextfilePath
	if !a.cfg.Metrics.Enabled {
		if path != "" {
			a.logger.Debug("Metrics disabled, textfile not written", logging.String("path", path))
		}
		return
	}
	if path == "" {
		a.logger.Warn("Metrics enabled without metrics.textfile_path")
		return
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		a.logger.Warn("Failed to write metrics", logging.String("path", path), logging.Error(err))
		return
	}
	a.logger.Debug("Metrics written", logging.String("path", path))
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}` + ui.Styles.Bold.Render("GLOBAL OPTIONS") + `
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}
