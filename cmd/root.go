// Copyright © 2024 The nxt authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/luthersystems/nxt/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var (
	cfgFile     string
	colorFlag   string
	logFile     string
	verbose     int
	quiet       int
	profileFlag bool

	profiler *profile.Profiler
)

var log = commonlog.GetLogger("nxt.cmd")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nxt",
	Short: "nxt: static analysis for Nix",
	Long: `nxt parses Nix expressions, resolves every variable reference to its
binding and reports likely mistakes, similar to "go vet" for Go.

Getting started:
  nxt lint file.nix            Run the lint checks on a file
  nxt lint ./...               Lint every .nix file below the current directory
  nxt lint --list              List the available checks
  nxt doc unused-binding       Show the documentation of a check
  nxt dump file.nix            Print the syntax tree and name resolution
  nxt repl                     Check expressions interactively
  nxt lsp                      Start the language server

Configuration is read from .nxt.yaml in the working directory or the home
directory, or from the file named by --config. Every key can also be set
from the environment with the NXT_ prefix, for example NXT_LINT_JOBS=4.

  lint:
    checks: [unused-binding, unresolved-reference]
    disable: [empty-let]
    exclude: [vendor, "generated-*.nix"]
    jobs: 4
    severity:
      shadowed-binding: info
  color: auto`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(run(rootCmd))
}

func run(cmd *cobra.Command) int {
	err := cmd.Execute()
	if perr := finishProfile(cmd); perr != nil {
		fmt.Fprintln(os.Stderr, perr)
	}
	var exit *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exit):
		return exit.code
	default:
		fmt.Fprintf(os.Stderr, "nxt: %v\n", err)
		return 2
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .nxt.yaml in the working or home directory)")
	flags.StringVar(&colorFlag, "color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	flags.StringVar(&logFile, "log-file", "", "Write log messages to this file instead of stderr.")
	flags.CountVarP(&verbose, "verbose", "v", "Log more detail (repeat for more).")
	flags.CountVarP(&quiet, "quiet", "q", "Log less (repeat for less).")
	flags.BoolVar(&profileFlag, "profile", false, "Print time spent in each phase to stderr.")

	_ = viper.BindPFlag(keyColor, flags.Lookup("color"))

	rootCmd.AddCommand(LintCommand(), DocCommand(), DumpCommand(), LSPCommand(), ReplCommand())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".nxt")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("NXT")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "nxt: reading config: %v\n", err)
		}
	}
}

// setup configures logging and profiling before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	level, err := verbosity(verbose, quiet)
	if err != nil {
		return err
	}
	if logFile != "" {
		commonlog.Configure(level, &logFile)
	} else {
		commonlog.Configure(level, nil)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		log.Infof("using config file %s", used)
	}

	if profileFlag {
		profiler = profile.New()
		if err := profiler.Enable(); err != nil {
			return err
		}
	}
	return nil
}

// verbosity maps the counts of -v and -q to a commonlog verbosity. One -v
// enables debug messages and -qqq silences logging entirely.
func verbosity(v, q int) (int, error) {
	switch {
	case v > 0 && q > 0:
		return 0, errors.New("--verbose and --quiet cannot be used together")
	case v > 0:
		return v + 1, nil
	case q >= 3:
		return -4, nil
	default:
		return -q, nil
	}
}

func finishProfile(cmd *cobra.Command) error {
	if profiler == nil {
		return nil
	}
	p := profiler
	profiler = nil
	if err := p.Complete(context.Background()); err != nil {
		return err
	}
	_, err := p.Summary().WriteTo(cmd.ErrOrStderr())
	return err
}
