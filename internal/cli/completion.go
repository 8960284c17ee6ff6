package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/ontap/internal/config"
	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/sink"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand generates shell completion scripts.
func (a *app) completionCommand() *cobra.Command {
	var alias string
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for bash, zsh, fish or powershell.

Installation:
  Bash:  eval "$(ontap completion bash)"
  Zsh:   eval "$(ontap completion zsh)"
  Fish:  ontap completion fish | source`,
		Example: `  ontap completion bash
  ontap completion zsh --alias=ot`,
		ValidArgs: completionShells,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.Configf("completion: shell required (%s)", joinShells())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.completion(cmd.Root(), args[0], alias)
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "generate completion for a command `NAME` aliased to ontap")
	return cmd
}

func (a *app) completion(root *cobra.Command, shell, alias string) error {
	if alias != "" {
		// The scripts are keyed by the root command's name.
		root.Use = alias
	}
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(a.stdout, true)
	case "zsh":
		return root.GenZshCompletion(a.stdout)
	case "fish":
		return root.GenFishCompletion(a.stdout, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(a.stdout)
	default:
		return errors.Configf("completion: unsupported shell %q (use %s)", shell, joinShells())
	}
}

func joinShells() string {
	return strings.Join(completionShells, ", ")
}

// registerFlagCompletions offers the known values of enumerated flags.
func (a *app) registerFlagCompletions(cmd *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		}
	}
	_ = cmd.RegisterFlagCompletionFunc("format", fixed(sink.FormatTAPY, sink.FormatTAPJ))
	_ = cmd.RegisterFlagCompletionFunc("input", fixed(append([]string{config.InputAuto}, a.registry.Formats()...)...))
	_ = cmd.MarkFlagDirname("root")
}
