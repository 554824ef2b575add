package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/rselect/internal/picker"
)

// Exit codes.
// These match the expectations of shell scripts:
//
//	0 = selection made (the value is on stdout)
//	1 = cancelled by user
//	2 = anything else (no TTY, bad flags, config, source or prompt error)
const (
	exitSuccess   = 0
	exitCancelled = 1
	exitFailure   = 2
)

// selectOptions holds the root command's flags. Zero values mean "use the
// configuration file".
type selectOptions struct {
	configPath string

	message      string
	searchText   string
	tickInterval time.Duration

	file       string
	url        string
	execLine   string
	sqlitePath string
	query      string
	grpcTarget string
	grpcMethod string
	demo       bool

	delay   time.Duration
	timeout time.Duration

	copy bool
}

var opts selectOptions

var rootCmd = &cobra.Command{
	Use:   "rselect [choice...]",
	Short: "Pick one value from a list that loads in the background",
	Long: `rselect - interactive single-choice prompt with asynchronously loaded choices

The choices come from exactly one of:
  - positional arguments           rselect red green blue
  - a YAML, JSON or TOML file      rselect --file regions.yaml
  - an HTTP endpoint               rselect --url https://api.example.com/regions
  - a command's output lines       rselect --exec "git branch --format '%(refname:short)'"
  - a SQLite query                 rselect --sqlite hosts.db --query "SELECT name AS value FROM hosts"
  - a gRPC unary method            rselect --grpc localhost:50051
  - lines piped on stdin           ls | rselect
  - the built-in demo list         rselect --demo

While a remote source is loading an animated "Searching..." line is shown.
The prompt is drawn on the controlling terminal and the chosen value is
printed to stdout, so rselect works inside $(...). Use "--" before
choices that collide with a subcommand name: rselect -- config version

Exit status is 0 when a value was chosen, 1 when cancelled with ctrl+c,
and 2 on any other error.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSelect,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, picker.ErrCancelled):
		return exitCancelled
	default:
		return exitFailure
	}
}

func init() {
	rootCmd.Version = Version

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/rselect/config.yaml)")

	f := rootCmd.Flags()
	f.StringVarP(&opts.message, "message", "m", "", "question shown to the user")
	f.StringVar(&opts.searchText, "search-text", "", "text shown while choices load")
	f.DurationVar(&opts.tickInterval, "tick-interval", 0, "loading animation frame delay")

	f.StringVarP(&opts.file, "file", "f", "", "read choices from a YAML, JSON or TOML file")
	f.StringVarP(&opts.url, "url", "u", "", "fetch choices from an HTTP endpoint")
	f.StringVarP(&opts.execLine, "exec", "e", "", "run a command and offer each output line")
	f.StringVar(&opts.sqlitePath, "sqlite", "", "query choices from a SQLite database (requires --query)")
	f.StringVar(&opts.query, "query", "", "SQL query for --sqlite")
	f.StringVar(&opts.grpcTarget, "grpc", "", "call a gRPC method at this target")
	f.StringVar(&opts.grpcMethod, "grpc-method", "", "full gRPC method name for --grpc")
	f.BoolVar(&opts.demo, "demo", false, "show the built-in demo list after a simulated delay")

	f.DurationVar(&opts.delay, "delay", 0, "wait this long before fetching")
	f.DurationVar(&opts.timeout, "timeout", 0, "give up fetching after this long")

	f.BoolVar(&opts.copy, "copy", false, "also copy the chosen value to the clipboard")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}
