// Package scenario holds the enumerated channel-parameter presets,
// plus an optional on-disk overrides file so a fourth, custom scenario
// can be defined without a rebuild.
package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/srlab/srproto/internal/channel"
)

// Scenario names a channel preset and its recommended timeout.
type Scenario struct {
	Num       int
	Name      string
	Channel   channel.Config
	TimeoutMS int
}

// builtins are the three enumerated scenarios.
var builtins = map[int]Scenario{
	1: {Num: 1, Name: "Canal parfait", Channel: channel.Config{ProbErreur: 0, ProbPerte: 0, DelaiMax: 0}},
	2: {Num: 2, Name: "Canal bruité", Channel: channel.Config{ProbErreur: 0.05, ProbPerte: 0.10, DelaiMax: 200 * time.Millisecond}},
	3: {Num: 3, Name: "Canal instable", Channel: channel.Config{ProbErreur: 0.10, ProbPerte: 0.15, DelaiMax: 300 * time.Millisecond}},
}

// BaseTimeoutMS is the protocol's minimum recommended timeout; the
// effective timeout is max(BaseTimeoutMS, 2*delaiMax+margin).
const BaseTimeoutMS = 260

// timeoutMargin is the slop added to 2*delaiMax when deriving a
// scenario's effective timeout, keeping it comfortably above the
// round-trip bound the delay parameter implies.
const timeoutMargin = 100 * time.Millisecond

// ErrUnknownScenario is returned by Lookup for a selector outside the
// known set.
type ErrUnknownScenario int

func (e ErrUnknownScenario) Error() string {
	return fmt.Sprintf("scenario: unknown scenario number %d", int(e))
}

// Overrides is the shape of an optional scenarios.toml file: a sparse
// map from scenario number to a channel preset, letting an operator
// define or replace scenarios without recompiling.
type Overrides struct {
	Scenario map[int]struct {
		Name       string  `toml:"name"`
		ProbErreur float64 `toml:"prob_erreur"`
		ProbPerte  float64 `toml:"prob_perte"`
		DelaiMaxMS int     `toml:"delai_max_ms"`
	} `toml:"scenario"`
}

// LoadOverrides parses a TOML overrides file. A missing path is not an
// error: it simply yields no overrides.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	if path == "" {
		return o, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return o, nil
	}
	_, err := toml.DecodeFile(path, &o)
	if err != nil {
		return o, fmt.Errorf("scenario: decoding %s: %w", path, err)
	}
	return o, nil
}

// Lookup resolves scenario number num, applying any override from o,
// and computes its effective timeout.
func Lookup(num int, o Overrides) (Scenario, error) {
	scn, ok := builtins[num]
	if entry, hasOverride := o.Scenario[num]; hasOverride {
		scn = Scenario{
			Num:  num,
			Name: entry.Name,
			Channel: channel.Config{
				ProbErreur: entry.ProbErreur,
				ProbPerte:  entry.ProbPerte,
				DelaiMax:   time.Duration(entry.DelaiMaxMS) * time.Millisecond,
			},
		}
		ok = true
	}
	if !ok {
		return Scenario{}, ErrUnknownScenario(num)
	}
	if err := scn.Channel.Validate(); err != nil {
		return Scenario{}, err
	}
	scn.TimeoutMS = EffectiveTimeoutMS(scn.Channel.DelaiMax)
	return scn, nil
}

// EffectiveTimeoutMS computes max(BaseTimeoutMS, 2*delaiMax+margin) in
// milliseconds.
func EffectiveTimeoutMS(delaiMax time.Duration) int {
	rttBased := int(2*delaiMax/time.Millisecond) + int(timeoutMargin/time.Millisecond)
	if rttBased > BaseTimeoutMS {
		return rttBased
	}
	return BaseTimeoutMS
}
