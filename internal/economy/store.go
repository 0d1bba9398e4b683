package economy

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Rejections. A rejected mutation leaves the state untouched.
var (
	ErrInvalidAmount     = errors.New("amount must be a positive finite number")
	ErrInvalidRig        = errors.New("invalid rig")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEquipmentNotFound = errors.New("equipment not found")
)

// Store owns the authoritative State. All mutations go through one mutex, so
// observers only ever see fully applied changes.
type Store struct {
	mu        sync.Mutex
	st        State
	newID     func() string
	listeners []func(State)
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUID generator used for new equipment.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// NewStore creates a store holding a copy of initial.
func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		st:    initial.Clone(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every applied mutation.
// Listeners run in mutation order with the store locked; they must not call
// back into the store.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// MiningPower returns the current aggregate TH/s.
func (s *Store) MiningPower() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.MiningPower()
}

// Replace swaps in a whole new state, as when a saved game is loaded.
func (s *Store) Replace(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st.Clone()
	s.commit()
}

// IncreaseMiningPower grants bonus power outside of any rig purchase.
func (s *Store) IncreaseMiningPower(amount float64) error {
	if !positive(amount) {
		slog.Debug("mining power grant rejected", "amount", amount)
		return fmt.Errorf("increase mining power by %v: %w", amount, ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.BonusPower += amount
	s.commit()
	return nil
}

// AddEarnings credits the balance and the lifetime total together.
func (s *Store) AddEarnings(amount float64) error {
	if !positive(amount) {
		slog.Debug("earnings rejected", "amount", amount)
		return fmt.Errorf("add earnings %v: %w", amount, ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Currency += amount
	s.st.TotalEarnings += amount
	s.commit()
	return nil
}

// BuyEquipment pays for a rig and adds it to the operation. No id is
// allocated unless the purchase goes through.
func (s *Store) BuyEquipment(spec RigSpec) (Equipment, error) {
	if err := spec.Validate(); err != nil {
		return Equipment{}, fmt.Errorf("buy %q: %w: %v", spec.Name, ErrInvalidRig, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.Currency < spec.Cost {
		slog.Debug("purchase rejected", "rig", spec.Name, "cost", spec.Cost, "currency", s.st.Currency)
		return Equipment{}, fmt.Errorf("buy %q: %w", spec.Name, ErrInsufficientFunds)
	}

	eq := Equipment{
		ID:         s.newID(),
		Name:       spec.Name,
		Level:      spec.Level,
		Efficiency: spec.Efficiency,
		Cost:       spec.Cost,
		Earnings:   spec.Earnings,
	}
	s.st.Currency -= spec.Cost
	s.st.Equipment = append(s.st.Equipment, eq)
	s.commit()
	return eq, nil
}

// UpgradeEquipment charges half the rig's cost to raise its level,
// multiplying efficiency by 1.2 and cost by 1.5.
func (s *Store) UpgradeEquipment(id string) (Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.st.Find(id)
	if !ok {
		return Equipment{}, fmt.Errorf("upgrade %s: %w", id, ErrEquipmentNotFound)
	}

	eq := &s.st.Equipment[i]
	price := eq.UpgradeCost()
	if s.st.Currency < price {
		slog.Debug("upgrade rejected", "rig", id, "cost", price, "currency", s.st.Currency)
		return Equipment{}, fmt.Errorf("upgrade %s: %w", id, ErrInsufficientFunds)
	}

	s.st.Currency -= price
	eq.Level++
	eq.Efficiency *= UpgradeEfficiency
	eq.Cost *= UpgradeCostGrowth
	upgraded := *eq
	s.commit()
	return upgraded, nil
}

// SellEquipment removes a rig and refunds 70% of its current cost.
// It returns the amount refunded.
func (s *Store) SellEquipment(id string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.st.Find(id)
	if !ok {
		return 0, fmt.Errorf("sell %s: %w", id, ErrEquipmentNotFound)
	}

	refund := s.st.Equipment[i].SaleValue()
	s.st.Currency += refund
	s.st.Equipment = append(s.st.Equipment[:i:i], s.st.Equipment[i+1:]...)
	s.commit()
	return refund, nil
}

// SetActive flips the flag that permits the earnings generator to run.
func (s *Store) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Active = active
	s.commit()
}

// commit notifies listeners. Caller holds s.mu.
func (s *Store) commit() {
	for _, fn := range s.listeners {
		fn(s.st.Clone())
	}
}
