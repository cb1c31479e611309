package command

import (
	"path/filepath"
	"testing"

	"github.com/joeycumines/goap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommand_Example(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, NewCheckCommand(nil, nil))
	require.NoError(t, err)
	assert.Contains(t, stdout, "(example): ok")
	assert.Regexp(t, `detonatebomb\s+cost 5\s+pre \[nearenemy armedwithbomb\]\s+effect \[!enemyalive !alive\]`, stdout)
	assert.Regexp(t, `kill \(default\)\s+priority 10`, stdout)
	assert.Regexp(t, `capacity\s+1024\n`, stdout)

	stdout, _, err = execute(t, NewCheckCommand(nil, nil), "-capacity", "64")
	require.NoError(t, err)
	assert.Regexp(t, `capacity\s+64\n`, stdout)

	stdout, _, err = execute(t, NewCheckCommand(nil, nil), "-example")
	require.NoError(t, err)
	assert.Equal(t, string(domain.ExampleSource()), stdout)
}

func TestCheckCommand_Files(t *testing.T) {
	isolate(t)

	good := filepath.Join("testdata", "switch.yaml")
	broken := filepath.Join("testdata", "broken.yaml")
	invalid := filepath.Join("testdata", "invalid.yaml")

	stdout, stderr, err := execute(t, NewCheckCommand(nil, nil), good, broken, invalid)
	assert.EqualError(t, err, "2 of 3 domain(s) failed")
	assert.Contains(t, stdout, good+": ok")
	assert.Contains(t, stdout, "flip")
	assert.Contains(t, stderr, broken+": FAIL:")
	assert.Contains(t, stderr, invalid+": FAIL:")

	stdout, _, err = execute(t, NewCheckCommand(nil, nil), "-q", good)
	require.NoError(t, err)
	assert.Empty(t, stdout)
}
