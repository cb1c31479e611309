package command

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionCommand(t *testing.T) {
	isolate(t)

	r := NewRegistry()
	r.Register(NewVersionCommand("1"))
	r.Register(NewPlanCommand(nil, nil))
	completion := NewCompletionCommand(r, nil, nil)
	r.Register(completion)

	tests := []struct {
		shell string
		want  []string
	}{
		{"bash", []string{`compgen -W "completion plan version"`, `compgen -W "kill survive"`, "complete -F _goap_completion goap"}},
		{"zsh", []string{"commands=(completion plan version)", "goals=(kill survive)", "compdef _goap goap"}},
		{"fish", []string{"-a 'completion plan version'", "-l goal -o goal -r -a 'kill survive'"}},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			stdout, _, err := execute(t, completion, tt.shell)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, stdout, want)
			}
		})
	}

	stdout, _, err := execute(t, completion)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# bash completion for goap")

	_, stderr, err := execute(t, completion, "tcsh")
	assert.EqualError(t, err, "unsupported shell: tcsh")
	assert.Contains(t, stderr, "Supported shells")

	_, _, err = execute(t, completion, "bash", "zsh")
	assert.Error(t, err)
}

func TestCompletionCommand_DomainGoals(t *testing.T) {
	isolate(t)

	completion := NewCompletionCommand(NewRegistry(), nil, nil)
	stdout, _, err := execute(t, completion, "-domain", filepath.Join("testdata", "switch.yaml"), "zsh")
	require.NoError(t, err)
	assert.Contains(t, stdout, "goals=(light)")
}
