package command

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCommand_Example(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, NewPlanCommand(nil, nil))
	require.NoError(t, err)
	assert.Contains(t, stdout, "goal:    kill (!enemyalive)")
	assert.Contains(t, stdout, "cost: 4")
	assert.Contains(t, stdout, "  1. scout\n  2. load\n  3. aim\n  4. shoot\n")
}

func TestPlanCommand_JSON(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, NewPlanCommand(nil, nil),
		"-format", "json", "-set", "armedwithgun=false,enemyvisible=true")
	require.NoError(t, err)

	var out planOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "soldier", out.Domain)
	assert.Equal(t, "found", out.Outcome)
	assert.Equal(t, []string{"approach", "detonatebomb"}, out.Actions)
	assert.Equal(t, 6, out.Cost)
}

func TestPlanCommand_GoalSelection(t *testing.T) {
	isolate(t)

	cfg := config.NewConfig()
	cfg.SetCommandOption("plan", "goal", "survive")

	// survive is already met, so the plan is empty
	stdout, _, err := execute(t, NewPlanCommand(cfg, nil), "-format", "json")
	require.NoError(t, err)
	var out planOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "survive", out.Goal)
	assert.Empty(t, out.Actions)

	_, _, err = execute(t, NewPlanCommand(cfg, nil), "-goal", "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownGoal)
}

func TestPlanCommand_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown atom", []string{"-set", "flying=true"}, `unknown atom "flying"`},
		{"bad format", []string{"-format", "xml"}, `unknown format "xml"`},
		{"missing file", []string{"-domain", filepath.Join("testdata", "nope.yaml")}, "nope.yaml"},
		{"invalid file", []string{"-domain", filepath.Join("testdata", "invalid.yaml")}, "invalid document"},
		{"unreachable", []string{"-set", "armedwithgun=false,armedwithbomb=false"}, `no plan for goal "kill": exhausted`},
		{"arguments", []string{"extra"}, "unexpected arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewPlanCommand(nil, nil), tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFactsFlag(t *testing.T) {
	t.Parallel()

	var f factsFlag
	require.NoError(t, f.Set("a=true, b=0"))
	require.NoError(t, f.Set("c=false"))
	assert.Equal(t, "a=true,b=false,c=false", f.String())

	assert.Error(t, f.Set("novalue"))
	assert.Error(t, f.Set("=true"))
	assert.Error(t, f.Set("a=maybe"))
}

func TestPlanCommand_RecordAndHistory(t *testing.T) {
	isolate(t)
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	_, _, err := execute(t, NewPlanCommand(nil, nil), "-record", "-journal-path", journalPath)
	require.NoError(t, err)

	cfg := config.NewConfig()
	cfg.SetCommandOption("plan", "journal", "true")
	cfg.SetGlobalOption("journal.path", journalPath)
	_, _, err = execute(t, NewPlanCommand(cfg, nil), "-goal", "survive")
	require.NoError(t, err)

	stdout, _, err := execute(t, NewHistoryCommand(nil, nil), "-journal-path", journalPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "AGENT")
	assert.Regexp(t, `cli\s+survive\s+found\s+0`, stdout)
	assert.Regexp(t, `cli\s+kill\s+found\s+4\s+\d+\s+scout load aim shoot`, stdout)

	stdout, _, err = execute(t, NewHistoryCommand(cfg, nil), "-limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "survive")
	assert.NotContains(t, stdout, "kill")

	stdout, _, err = execute(t, NewHistoryCommand(cfg, nil), "-agent", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "No journaled plans.\n", stdout)
}
