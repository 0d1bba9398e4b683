package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/talgya/rigsim/internal/economy"
)

// DefaultSlotKey is the slot the game state is saved under.
const DefaultSlotKey = "rollercoin-game-state"

// document is the saved form of economy.State. MiningPower is written for
// readers of the raw slot; on load it is only consulted for documents that
// predate BonusPower.
type document struct {
	VirtualCurrency float64             `json:"virtualCurrency"`
	MiningPower     float64             `json:"miningPower"`
	TotalEarnings   float64             `json:"totalEarnings"`
	Rigs            []economy.Equipment `json:"rigs"`
	IsActive        bool                `json:"isActive"`
	BonusPower      *float64            `json:"bonusPower,omitempty"`
}

// Encode serializes a state for the slot.
func Encode(st economy.State) ([]byte, error) {
	bonus := st.BonusPower
	rigs := st.Equipment
	if rigs == nil {
		rigs = []economy.Equipment{}
	}
	doc := document{
		VirtualCurrency: st.Currency,
		MiningPower:     st.MiningPower(),
		TotalEarnings:   st.TotalEarnings,
		Rigs:            rigs,
		IsActive:        st.Active,
		BonusPower:      &bonus,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// Decode parses and validates a saved state.
func Decode(data []byte) (economy.State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return economy.State{}, fmt.Errorf("decode state: %w", err)
	}

	st := economy.State{
		Currency:      doc.VirtualCurrency,
		TotalEarnings: doc.TotalEarnings,
		Equipment:     doc.Rigs,
		Active:        doc.IsActive,
	}
	if st.Equipment == nil {
		st.Equipment = []economy.Equipment{}
	}

	if doc.BonusPower != nil {
		st.BonusPower = *doc.BonusPower
	} else {
		// Older saves only carry the aggregate; whatever the rigs don't
		// explain was granted as bonus.
		st.BonusPower = max(doc.MiningPower-st.EquipmentPower(), 0)
		st.Equipment = reissueDuplicateIDs(st.Equipment)
	}

	if err := st.Validate(); err != nil {
		return economy.State{}, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

// reissueDuplicateIDs gives fresh ids to rigs whose id was already taken.
// Older saves used millisecond timestamps, which collide for quick buys.
func reissueDuplicateIDs(rigs []economy.Equipment) []economy.Equipment {
	seen := make(map[string]struct{}, len(rigs))
	for i := range rigs {
		if _, dup := seen[rigs[i].ID]; dup {
			old := rigs[i].ID
			rigs[i].ID = uuid.NewString()
			slog.Info("reissued duplicate rig id", "old", old, "new", rigs[i].ID)
		}
		seen[rigs[i].ID] = struct{}{}
	}
	return rigs
}

// Adapter loads and saves economy state through a Slot.
type Adapter struct {
	slot Slot
}

// NewAdapter creates an adapter over slot.
func NewAdapter(slot Slot) *Adapter {
	return &Adapter{slot: slot}
}

// Load returns the saved state, or the initial state when the slot is empty,
// unreadable or holds something that is not a valid state.
func (a *Adapter) Load(ctx context.Context) economy.State {
	data, err := a.slot.Load(ctx)
	if errors.Is(err, ErrSlotEmpty) {
		slog.Info("no saved game state, starting fresh")
		return economy.InitialState()
	}
	if err != nil {
		slog.Warn("failed to load game state, starting fresh", "error", err)
		return economy.InitialState()
	}

	st, err := Decode(data)
	if err != nil {
		slog.Warn("saved game state is malformed, starting fresh", "error", err)
		return economy.InitialState()
	}

	slog.Info("game state loaded",
		"currency", st.Currency,
		"mining_power", st.MiningPower(),
		"rigs", len(st.Equipment),
	)
	return st
}

// Save writes st to the slot. On failure the slot keeps its previous value.
func (a *Adapter) Save(ctx context.Context, st economy.State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := a.slot.Save(ctx, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Restore loads the saved state into store. Call it before Attach so the
// loaded state is not written straight back.
func (a *Adapter) Restore(ctx context.Context, store *economy.Store) {
	store.Replace(a.Load(ctx))
}

// Clear empties the slot so the next Load starts fresh.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.slot.Clear(ctx)
}

// Attach saves every state the store commits. Failures are logged and the
// game carries on with its in-memory state.
func (a *Adapter) Attach(store *economy.Store) {
	store.Subscribe(func(st economy.State) {
		if err := a.Save(context.Background(), st); err != nil {
			slog.Error("failed to save game state", "error", err)
		}
	})
}
