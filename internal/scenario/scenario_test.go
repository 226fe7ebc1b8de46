package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuiltinScenarios(t *testing.T) {
	s1, err := Lookup(1, Overrides{})
	require.NoError(t, err)
	require.Equal(t, 260, s1.TimeoutMS)

	s2, err := Lookup(2, Overrides{})
	require.NoError(t, err)
	require.Equal(t, 500, s2.TimeoutMS) // max(260, 2*200+100)

	s3, err := Lookup(3, Overrides{})
	require.NoError(t, err)
	require.Equal(t, 700, s3.TimeoutMS) // max(260, 2*300+100)
}

func TestUnknownScenario(t *testing.T) {
	_, err := Lookup(42, Overrides{})
	require.Error(t, err)
	require.Equal(t, "scenario: unknown scenario number 42", err.Error())
}

func TestMissingOverridesFileIsNotAnError(t *testing.T) {
	o, err := LoadOverrides("/does/not/exist.toml")
	require.NoError(t, err)
	require.Empty(t, o.Scenario)
}

func TestOverrideReplacesBuiltin(t *testing.T) {
	var o Overrides
	o.Scenario = map[int]struct {
		Name       string  `toml:"name"`
		ProbErreur float64 `toml:"prob_erreur"`
		ProbPerte  float64 `toml:"prob_perte"`
		DelaiMaxMS int     `toml:"delai_max_ms"`
	}{
		1: {Name: "Canal custom", ProbErreur: 0.2, ProbPerte: 0.2, DelaiMaxMS: 50},
	}
	scn, err := Lookup(1, o)
	require.NoError(t, err)
	require.Equal(t, "Canal custom", scn.Name)
	require.Equal(t, 50*time.Millisecond, scn.Channel.DelaiMax)
}
