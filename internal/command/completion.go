package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joeycumines/goap/internal/config"
)

// CompletionCommand prints shell completion scripts. Goal names come from
// the configured domain.
type CompletionCommand struct {
	*BaseCommand
	runtime
	registry *Registry
}

// NewCompletionCommand creates a new completion command.
func NewCompletionCommand(registry *Registry, cfg *config.Config, logger *slog.Logger) *CompletionCommand {
	return &CompletionCommand{
		BaseCommand: NewBaseCommand(
			"completion",
			"Generate shell completion scripts",
			"completion [bash|zsh|fish]",
		),
		runtime:  newRuntime(cfg, logger),
		registry: registry,
	}
}

func (c *CompletionCommand) SetupFlags(fs *flag.FlagSet) {
	c.setupDomainFlags(fs)
}

func (c *CompletionCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 1 {
		_, _ = fmt.Fprintf(stderr, "Too many arguments: %v\n", args[1:])
		return fmt.Errorf("too many arguments")
	}
	shell := "bash"
	if len(args) > 0 {
		shell = strings.ToLower(args[0])
	}

	commands := strings.Join(c.registry.List(), " ")
	var goals []string
	if d, err := c.loadDomain(); err == nil {
		for _, g := range d.Goals {
			goals = append(goals, g.Name)
		}
	} else {
		c.logger.Warn("[completion] domain unavailable, omitting goals", "error", err)
	}

	var script string
	switch shell {
	case "bash":
		script = fmt.Sprintf(bashCompletion, commands, strings.Join(goals, " "))
	case "zsh":
		script = fmt.Sprintf(zshCompletion, commands, strings.Join(goals, " "))
	case "fish":
		var b strings.Builder
		fmt.Fprintf(&b, "# fish completion for goap\ncomplete -c goap -f\n")
		fmt.Fprintf(&b, "complete -c goap -n '__fish_use_subcommand' -a '%s'\n", commands)
		fmt.Fprintf(&b, "complete -c goap -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'\n")
		fmt.Fprintf(&b, "complete -c goap -n '__fish_seen_subcommand_from help' -a '%s'\n", commands)
		if len(goals) > 0 {
			fmt.Fprintf(&b, "complete -c goap -l goal -o goal -r -a '%s'\n", strings.Join(goals, " "))
		}
		script = b.String()
	default:
		_, _ = fmt.Fprintf(stderr, "Unsupported shell: %s\n", shell)
		_, _ = fmt.Fprintln(stderr, "Supported shells: bash, zsh, fish")
		return fmt.Errorf("unsupported shell: %s", shell)
	}

	_, err := io.WriteString(stdout, script)
	return err
}

const bashCompletion = `# bash completion for goap
# source <(goap completion bash)

_goap_completion() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=($(compgen -W "%[1]s" -- "${cur}"))
        return 0
    fi

    case "${prev}" in
        help)
            COMPREPLY=($(compgen -W "%[1]s" -- "${cur}"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            ;;
        -goal|--goal)
            COMPREPLY=($(compgen -W "%[2]s" -- "${cur}"))
            ;;
        *)
            COMPREPLY=($(compgen -f -- "${cur}"))
            ;;
    esac
}

complete -F _goap_completion goap
`

const zshCompletion = `#compdef goap
# source <(goap completion zsh)

_goap() {
    local -a commands goals
    commands=(%[1]s)
    goals=(%[2]s)

    if (( CURRENT == 2 )); then
        compadd -a commands
        return
    fi

    case "${words[CURRENT-1]}" in
        help) compadd -a commands ;;
        completion) compadd bash zsh fish ;;
        -goal|--goal) compadd -a goals ;;
        *) _files ;;
    esac
}

compdef _goap goap
`
