// Package economy holds the mining operation's balance sheet and the rules
// for buying, upgrading and selling rigs.
package economy

import (
	"errors"
	"fmt"
	"math"
)

// Economy constants.
const (
	InitialCurrency   = 1000.0
	InitialBonusPower = 10.0 // Starting TH/s granted before any rig is owned

	UpgradeCostRatio  = 0.5 // Fraction of a rig's cost charged to upgrade it
	UpgradeEfficiency = 1.2 // Efficiency multiplier per upgrade
	UpgradeCostGrowth = 1.5 // Cost multiplier per upgrade
	SellRefundRatio   = 0.7 // Fraction of a rig's cost refunded on sale
)

// Equipment is an owned mining rig.
type Equipment struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Level      int     `json:"level"`
	Efficiency float64 `json:"efficiency"` // TH/s contributed to mining power
	Cost       float64 `json:"cost"`       // Upgrade and resale basis; grows on upgrade
	Earnings   float64 `json:"earnings"`   // Advertised BTC/day, informational
}

// UpgradeCost is what the next upgrade of e costs.
func (e Equipment) UpgradeCost() float64 {
	return e.Cost * UpgradeCostRatio
}

// SaleValue is what selling e refunds.
func (e Equipment) SaleValue() float64 {
	return e.Cost * SellRefundRatio
}

// State is the full economy at a point in time.
//
// Mining power is never stored: it is the sum of owned rig efficiencies plus
// BonusPower, the ledger of power granted outside of purchases.
type State struct {
	Currency      float64
	TotalEarnings float64 // Lifetime, never decreases
	Equipment     []Equipment
	BonusPower    float64
	Active        bool // Whether the earnings generator may run
}

// InitialState returns the state of a brand-new operation.
func InitialState() State {
	return State{
		Currency:   InitialCurrency,
		BonusPower: InitialBonusPower,
		Equipment:  []Equipment{},
	}
}

// MiningPower returns the aggregate TH/s of the operation.
func (s State) MiningPower() float64 {
	return s.EquipmentPower() + s.BonusPower
}

// EquipmentPower returns the TH/s contributed by owned rigs alone.
func (s State) EquipmentPower() float64 {
	total := 0.0
	for _, e := range s.Equipment {
		total += e.Efficiency
	}
	return total
}

// Investment returns the summed current cost of owned rigs.
func (s State) Investment() float64 {
	total := 0.0
	for _, e := range s.Equipment {
		total += e.Cost
	}
	return total
}

// Find returns the index of the rig with the given id.
func (s State) Find(id string) (int, bool) {
	for i, e := range s.Equipment {
		if e.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.Equipment = make([]Equipment, len(s.Equipment))
	copy(c.Equipment, s.Equipment)
	return c
}

// Validate reports whether s could have been produced by the economy rules.
func (s State) Validate() error {
	if !nonNegative(s.Currency) {
		return fmt.Errorf("currency %v out of range", s.Currency)
	}
	if !nonNegative(s.TotalEarnings) {
		return fmt.Errorf("total earnings %v out of range", s.TotalEarnings)
	}
	if !nonNegative(s.BonusPower) {
		return fmt.Errorf("bonus power %v out of range", s.BonusPower)
	}

	seen := make(map[string]struct{}, len(s.Equipment))
	for i, e := range s.Equipment {
		if e.ID == "" {
			return fmt.Errorf("rig %d has no id", i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate rig id %s", e.ID)
		}
		seen[e.ID] = struct{}{}
		if err := validRig(e.Name, e.Level, e.Efficiency, e.Cost); err != nil {
			return fmt.Errorf("rig %s: %w", e.ID, err)
		}
	}
	return nil
}

func validRig(name string, level int, efficiency, cost float64) error {
	switch {
	case name == "":
		return errors.New("name is required")
	case level < 1:
		return fmt.Errorf("level %d below 1", level)
	case !positive(efficiency):
		return fmt.Errorf("efficiency %v must be positive", efficiency)
	case !nonNegative(cost):
		return fmt.Errorf("cost %v must not be negative", cost)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func nonNegative(v float64) bool {
	return finite(v) && v >= 0
}
