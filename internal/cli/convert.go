package cli

import (
	"bytes"
	goerrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/ontap/internal/config"
	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/failure"
	"github.com/AndreyAkinshin/ontap/internal/gotest"
	"github.com/AndreyAkinshin/ontap/internal/project"
	"github.com/AndreyAkinshin/ontap/internal/report"
	"github.com/AndreyAkinshin/ontap/internal/schema"
	"github.com/AndreyAkinshin/ontap/internal/sink"
	"github.com/AndreyAkinshin/ontap/internal/source"
	"github.com/AndreyAkinshin/ontap/internal/testparser"
)

type convertOptions struct {
	format        string
	input         string
	output        string
	root          string
	radius        int
	stripANSI     bool
	validate      bool
	fullBacktrace bool
}

func (a *app) convertCommand() *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert [file|-]",
		Short: "Convert go test output into a TAP-Y or TAP-J stream",
		Long: `Convert reads go test -json or go test -v output from a file or stdin
and writes a TAP-Y or TAP-J stream.

Packages become case documents, tests with subtests become nested cases
and every leaf test becomes a test document. Test locations and source
snippets are resolved through the module's go.mod when one is found.

Settings come from defaults, then .ontap.json at the project root, then
.env and ONTAP_* environment variables, then flags.

Exit code: 0 if all tests passed, 1 if any test failed or errored`,
		Example: `  go test -json ./... | ontap convert
  go test -v ./... | ontap convert --format tapj
  ontap convert --output report.tapy test.json`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", config.DefaultFormat, "output format: tapy or tapj")
	f.StringVarP(&opts.input, "input", "i", config.DefaultInput, "input form: auto, json or text")
	f.StringVarP(&opts.output, "output", "o", "", "write the stream to `FILE` instead of stdout")
	f.StringVar(&opts.root, "root", "", "project root `DIR` (default: nearest directory with go.mod)")
	f.IntVar(&opts.radius, "radius", config.DefaultRadius, "source lines shown around each location")
	f.BoolVar(&opts.stripANSI, "strip-ansi", false, "remove ANSI escape codes from captured output")
	f.BoolVar(&opts.validate, "validate", false, "validate every document before writing it")
	f.BoolVar(&opts.fullBacktrace, "full-backtrace", false, "keep runtime, testing and assertion frames in backtraces")
	return cmd
}

func (a *app) convert(cmd *cobra.Command, args []string, opts *convertOptions) error {
	proj, cfg, err := a.loadConfig(opts.root)
	if err != nil {
		return err
	}
	applyConvertFlags(cmd, cfg, opts)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	toStdout := cfg.Output == "" || cfg.Output == "-"
	a.initLogging(cfg.LogLevel, toStdout && cfg.Format == sink.FormatTAPJ)

	data, err := readInput(a.stdin, args)
	if err != nil {
		return err
	}
	parser, err := a.parser(cfg.Input, data)
	if err != nil {
		return err
	}
	events, err := parser.Events(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("cannot read go test output: %w", err)
	}
	if len(events) == 0 {
		a.out.Warning("no go test events found in input")
	}
	slog.Debug("converting go test output", "parser", parser.Name(), "events", len(events), "format", cfg.Format)

	w := a.stdout
	if !toStdout {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	s, err := sink.New(cfg.Format, w)
	if err != nil {
		return err
	}
	var emitter gotest.Emitter = s
	if cfg.Validate {
		emitter = &validatingEmitter{next: s}
	}

	root := resolveRoot(proj, cfg.Root)
	extractor := source.NewExtractor(source.NewCache(root))
	extractor.Radius = cfg.Radius
	converter := gotest.NewConverter(emitter, gotest.Options{
		Root:      root,
		Project:   proj,
		Extractor: extractor,
		StripANSI: cfg.StripANSI,
		Backtrace: failure.BacktraceOptions{
			Root:    root,
			Filter:  cfg.FilterBacktrace,
			Exclude: failure.DefaultExclude,
		},
	})

	counts, convErr := converter.Convert(events)
	if err := s.Close(); err != nil && convErr == nil {
		convErr = fmt.Errorf("cannot finish stream: %w", err)
	}
	if convErr != nil {
		return convErr
	}

	if !toStdout {
		a.out.Info("wrote %d test documents to %s", counts.Total, cfg.Output)
	}
	if counts.Failed() {
		return &exitError{code: errors.ExitTestsFailed}
	}
	return nil
}

// loadConfig loads the project around root (or the working directory) and
// its configuration. Without a go.mod the configuration is still read from
// the directory, and test locations are not resolved.
func (a *app) loadConfig(root string) (*project.Project, *config.Config, error) {
	dir := root
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, errors.Environmentf("cannot determine working directory: %v", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, errors.Environmentf("cannot resolve %s: %v", root, err)
	}

	var proj *project.Project
	if root != "" {
		proj, err = project.LoadProjectFrom(dir)
	} else {
		proj, err = project.LoadProject()
	}
	if err == nil {
		a.warn(proj.Warnings)
		return proj, proj.Config, nil
	}
	if !goerrors.Is(err, project.ErrNoProjectRoot) && !goerrors.Is(err, fs.ErrNotExist) {
		return nil, nil, err
	}

	slog.Debug("no go.mod found, test locations disabled", "dir", dir)
	cfg, warnings, err := config.LoadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	a.warn(warnings)
	if cfg.Root == "" {
		cfg.Root = dir
	}
	return nil, cfg, nil
}

func (a *app) warn(warnings []string) {
	for _, w := range warnings {
		a.out.Warning("%s", w)
	}
}

func applyConvertFlags(cmd *cobra.Command, cfg *config.Config, opts *convertOptions) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("input") {
		cfg.Input = opts.input
	}
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("root") {
		// A flag path is relative to the working directory, unlike a
		// configured one.
		cfg.Root = opts.root
		if abs, err := filepath.Abs(opts.root); err == nil {
			cfg.Root = abs
		}
	}
	if flags.Changed("radius") {
		cfg.Radius = opts.radius
	}
	if flags.Changed("strip-ansi") {
		cfg.StripANSI = opts.stripANSI
	}
	if flags.Changed("validate") {
		cfg.Validate = opts.validate
	}
	if flags.Changed("full-backtrace") {
		cfg.FilterBacktrace = !opts.fullBacktrace
	}
}

// resolveRoot returns the absolute directory paths are reported relative to.
// A relative configured root is taken relative to the project root.
func resolveRoot(proj *project.Project, root string) string {
	base := ""
	if proj != nil {
		base = proj.Root
	}
	switch {
	case root == "":
		root = base
	case !filepath.IsAbs(root) && base != "":
		root = filepath.Join(base, root)
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

// readInput reads the named file, or stdin for no argument or "-".
func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("cannot read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("cannot read input: %w", err)
	}
	return data, nil
}

func (a *app) parser(input string, data []byte) (testparser.Parser, error) {
	if input == "" || input == config.InputAuto {
		return a.registry.Detect(data), nil
	}
	p := a.registry.GetParser(input)
	if p == nil {
		return nil, errors.Configf("unknown input form %q (expected auto or one of %s)",
			input, strings.Join(a.registry.Formats(), ", "))
	}
	return p, nil
}

// validatingEmitter checks every document against the TAP-Y/J schema
// before passing it on.
type validatingEmitter struct {
	next gotest.Emitter
}

func (v *validatingEmitter) Emit(doc *report.Document) error {
	if err := schema.ValidateDocument(doc); err != nil {
		return err
	}
	return v.next.Emit(doc)
}
