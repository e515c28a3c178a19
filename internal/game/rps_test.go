package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassic_Resolve(t *testing.T) {
	rules := Classic()

	cases := []struct {
		a, b   Move
		winner int
		result Result
	}{
		{Rock, Scissors, 1, ResultPlayer1Wins},
		{Rock, Rock, 0, ResultDraw},
		{Scissors, Rock, 2, ResultPlayer2Wins},
		{Paper, Rock, 1, ResultPlayer1Wins},
		{Rock, Paper, 2, ResultPlayer2Wins},
		{Scissors, Paper, 1, ResultPlayer1Wins},
		{Paper, Scissors, 2, ResultPlayer2Wins},
	}

	for _, tc := range cases {
		out, err := rules.Resolve([2]Move{tc.a, tc.b})
		require.NoError(t, err)
		assert.Equal(t, tc.winner, out.Winner, "%s vs %s", tc.a, tc.b)
		assert.Equal(t, tc.result, out.Result(), "%s vs %s", tc.a, tc.b)
		assert.Equal(t, [2]Move{tc.a, tc.b}, out.Choices)
	}
}

func TestResolve_RejectsIncompleteOrUnknown(t *testing.T) {
	rules := Classic()

	_, err := rules.Resolve([2]Move{Rock, NoMove})
	assert.ErrorIs(t, err, ErrIncompletePair)

	_, err = rules.Resolve([2]Move{"lizard", Rock})
	assert.ErrorIs(t, err, ErrUnknownMove)
}

func TestOutcome_Own(t *testing.T) {
	out := Outcome{Winner: 1, Choices: [2]Move{Rock, Scissors}}

	mine, enemy := out.Own(1)
	assert.Equal(t, Rock, mine)
	assert.Equal(t, Scissors, enemy)

	mine, enemy = out.Own(2)
	assert.Equal(t, Scissors, mine)
	assert.Equal(t, Rock, enemy)
}

func TestNewRuleset_Validation(t *testing.T) {
	tests := []struct {
		name  string
		beats map[Move]Move
	}{
		{"too small", map[Move]Move{Rock: Paper}},
		{"self beat", map[Move]Move{Rock: Rock, Paper: Rock, Scissors: Paper}},
		{"unknown target", map[Move]Move{Rock: "fire", Paper: Rock, Scissors: Paper}},
		{"mutual", map[Move]Move{Rock: Paper, Paper: Rock}},
		{"no winner", map[Move]Move{"a": "b", "b": "c", "c": "d", "d": "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuleset(tt.beats)
			assert.ErrorIs(t, err, ErrInvalidRuleset)
		})
	}
}

func TestNewRuleset_SizeMessage(t *testing.T) {
	_, err := NewRuleset(map[Move]Move{Rock: Paper, Paper: Rock})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly three moves required, got 2")

	_, err = NewRuleset(map[Move]Move{"a": "b", "b": "c", "c": "d", "d": "a"})
	assert.Contains(t, err.Error(), "got 4")
}

func TestClassic_Moves(t *testing.T) {
	assert.Equal(t, []Move{Paper, Rock, Scissors}, Classic().Moves())
	assert.True(t, Classic().Valid(Rock))
	assert.False(t, Classic().Valid(NoMove))
}

func TestParseRuleset(t *testing.T) {
	rules, err := ParseRuleset([]byte(`
beats:
  Fire: grass
  grass: WATER
  water: fire
`))
	require.NoError(t, err)

	out, err := rules.Resolve([2]Move{"water", "fire"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Winner)

	_, err = ParseRuleset([]byte("beats: [1, 2"))
	assert.ErrorIs(t, err, ErrInvalidRuleset)
}

func TestLoadRuleset(t *testing.T) {
	rules, err := LoadRuleset("")
	require.NoError(t, err)
	assert.Len(t, rules.Moves(), 3)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("beats:\n  rock: scissors\n  paper: rock\n  scissors: paper\n"), 0o600))

	rules, err = LoadRuleset(path)
	require.NoError(t, err)
	assert.True(t, rules.Beats(Rock, Scissors))

	_, err = LoadRuleset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
