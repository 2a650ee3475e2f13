package config

import (
	"fmt"

	"github.com/chazu/integral/pkg/grid"
)

// Action is a button press on the control panel.
type Action int

const (
	ActionMore Action = iota
	ActionLess
	ActionToggleFunction
	ActionToggleIncremental
	ActionToggleFullGrid
	ActionToggleParty
)

func (a Action) String() string {
	switch a {
	case ActionMore:
		return "more"
	case ActionLess:
		return "less"
	case ActionToggleFunction:
		return "function"
	case ActionToggleIncremental:
		return "incremental"
	case ActionToggleFullGrid:
		return "full-grid"
	case ActionToggleParty:
		return "party"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction maps a name produced by Action.String back to the action.
func ParseAction(s string) (Action, bool) {
	for a := ActionMore; a <= ActionToggleParty; a++ {
		if a.String() == s {
			return a, true
		}
	}
	return 0, false
}

// Press returns the configuration after applying a. Less saturates at zero
// and More stops at grid.MaxLevel.
func (c Config) Press(a Action) Config {
	switch a {
	case ActionMore:
		if c.N < grid.MaxLevel {
			c.N++
		}
	case ActionLess:
		if c.N > 0 {
			c.N--
		}
	case ActionToggleFunction:
		c.ShowFunction = !c.ShowFunction
	case ActionToggleIncremental:
		c.Incremental = !c.Incremental
	case ActionToggleFullGrid:
		c.ShowFullGrid = !c.ShowFullGrid
	case ActionToggleParty:
		c.Party = !c.Party
	}
	return c
}
