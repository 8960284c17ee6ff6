// Package cli implements the ontap command line: converting go test output
// into TAP-Y/J streams, validating streams and summarizing runs.
package cli

import (
	goerrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/ontap/internal/config"
	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/logging"
	"github.com/AndreyAkinshin/ontap/internal/output"
	"github.com/AndreyAkinshin/ontap/internal/testparser"
)

// Version is set at build time.
var Version = "dev"

// GlobalOptions holds the flags shared by every command.
type GlobalOptions struct {
	LogLevel string
	Quiet    bool
	NoColor  bool
}

// app carries the streams and shared state of one CLI invocation.
type app struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	out      *output.Writer
	opts     GlobalOptions
	registry *testparser.Registry
}

// exitError ends a command with a specific exit code. Its message, if any,
// has already been printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	return RunWithIO(args, os.Stdin, os.Stdout, os.Stderr)
}

// RunWithIO is Run with explicit streams (for testing).
func RunWithIO(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		out:      output.NewWithWriters(stdout, stderr, output.SupportsColor(stdout)),
		registry: testparser.NewRegistry(),
	}
	cmd := a.rootCommand()
	cmd.SetArgs(args)
	return a.exitCode(cmd.Execute())
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ontap",
		Short: "Report go test runs as TAP-Y/J document streams",
		Long: `ontap turns the output of go test into a TAP-Y or TAP-J (revision 4)
document stream: one suite document, a case document per package and
subtest group, a test document per test with source snippets and
failure details, and a final document with the run's counts.

It reads go test -json or go test -v output, validates existing streams
and prints human-readable summaries.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.applyGlobalOptions()
		},
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetVersionTemplate("ontap {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Config(err.Error())
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.LogLevel, "log-level", "", "diagnostics level: debug, info, warn or error (default warn)")
	flags.BoolVarP(&a.opts.Quiet, "quiet", "q", false, "print errors only")
	flags.BoolVar(&a.opts.NoColor, "no-color", false, "disable colored output")

	cmd.CompletionOptions.DisableDefaultCmd = true

	convert := a.convertCommand()
	a.registerFlagCompletions(convert)
	cmd.AddCommand(convert)
	cmd.AddCommand(a.validateCommand())
	cmd.AddCommand(a.summaryCommand())
	cmd.AddCommand(a.versionCommand())
	cmd.AddCommand(a.completionCommand())
	return cmd
}

func (a *app) applyGlobalOptions() {
	a.out.SetQuiet(a.opts.Quiet)
	if a.opts.NoColor {
		a.out.SetColor(false)
	}
	a.initLogging(a.opts.LogLevel, false)
}

// initLogging installs the diagnostics logger. An explicit --log-level wins
// over level.
func (a *app) initLogging(level string, jsonOutput bool) {
	if a.opts.LogLevel != "" {
		level = a.opts.LogLevel
	}
	if level == "" {
		level = config.DefaultLogLevel
	}
	logging.Init(a.stderr, logging.ParseLevel(level), jsonOutput)
}

// exitCode maps a command error to the process exit code, printing it
// unless it was already reported.
func (a *app) exitCode(err error) int {
	if err == nil {
		return errors.ExitSuccess
	}
	var ee *exitError
	if goerrors.As(err, &ee) {
		return ee.code
	}
	a.out.ErrorPrefix("%v", err)
	return errors.GetExitCode(err)
}

// maxArgs is cobra.MaximumNArgs reporting a configuration error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return errors.Configf("%s accepts at most %d argument(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  maxArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			a.out.Println("ontap %s", Version)
		},
	}
}
