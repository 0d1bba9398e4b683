package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/talgya/rigsim/internal/economy"
	"github.com/talgya/rigsim/internal/persistence"
)

// app is the opened save slot and the store loaded from it.
type app struct {
	db      *persistence.DB // nil when saving to a file
	file    persistence.FileSlot
	adapter *persistence.Adapter
	store   *economy.Store
}

// openApp opens the configured slot, loads the store and attaches autosave.
func openApp(ctx context.Context) (*app, error) {
	a := &app{}

	var slot persistence.Slot
	if cfg.Database != "" {
		db, err := persistence.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		slot = db.Slot(cfg.SlotKey)
		slog.Debug("database opened", "path", cfg.Database, "slot", cfg.SlotKey)
	} else {
		a.file = persistence.FileSlot{Path: cfg.StateFile}
		slot = a.file
		slog.Debug("state file selected", "path", cfg.StateFile)
	}

	a.adapter = persistence.NewAdapter(slot)
	a.store = economy.NewStore(economy.InitialState())
	a.adapter.Restore(ctx, a.store)
	a.adapter.Attach(a.store)
	return a, nil
}

// savedAt reports when the slot was last written.
func (a *app) savedAt(ctx context.Context) (time.Time, error) {
	if a.db != nil {
		return a.db.UpdatedAt(ctx, cfg.SlotKey)
	}
	info, err := os.Stat(a.file.Path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, persistence.ErrSlotEmpty
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", a.file.Path, err)
	}
	return info.ModTime(), nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
}
