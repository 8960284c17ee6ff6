package cli

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/schema"
	"github.com/AndreyAkinshin/ontap/internal/sink"
)

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Validate a TAP-Y or TAP-J stream",
		Long: `Validate checks every document of a TAP-Y or TAP-J stream against the
revision 4 schema, then checks the stream as a whole: a suite document
first, a final document last, and final counts that add up.

Exit code: 0 if valid, 2 if any error was found`,
		Example: `  ontap convert test.json | ontap validate
  ontap validate report.tapj`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(args)
		},
	}
}

func (a *app) validate(args []string) error {
	data, err := readInput(a.stdin, args)
	if err != nil {
		return err
	}
	docs, err := sink.ReadStream(bytes.NewReader(data))
	if err != nil {
		return errors.Validation("cannot decode stream: "+err.Error(), err)
	}

	errs := schema.ValidateStream(docs)
	if len(errs) > 0 {
		for _, err := range errs {
			a.out.Errorln("%v", err)
		}
		a.out.ErrorPrefix("stream is invalid (%d error(s))", len(errs))
		return &exitError{code: errors.ExitInvalidStream}
	}

	if !a.out.Quiet() {
		a.out.ValidationSuccess("%s stream is valid (%d documents)", sink.DetectFormat(data), len(docs))
	}
	return nil
}
