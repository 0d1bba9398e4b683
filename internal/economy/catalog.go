package economy

import "strings"

// RigSpec describes a rig before purchase.
type RigSpec struct {
	Name        string  `json:"name"`
	Level       int     `json:"level"`
	Efficiency  float64 `json:"efficiency"` // TH/s
	Cost        float64 `json:"cost"`
	Earnings    float64 `json:"earnings"` // Advertised BTC/day
	Description string  `json:"description,omitempty"`
}

// Validate checks r can be turned into owned equipment.
func (r RigSpec) Validate() error {
	return validRig(r.Name, r.Level, r.Efficiency, r.Cost)
}

// Catalog lists the rigs offered in the shop.
var Catalog = []RigSpec{
	{
		Name:        "Antminer S19",
		Level:       1,
		Efficiency:  5.2,
		Cost:        150,
		Earnings:    0.001,
		Description: "Entry-level mining rig with decent efficiency",
	},
	{
		Name:        "Antminer S19 Pro",
		Level:       1,
		Efficiency:  8.5,
		Cost:        280,
		Earnings:    0.0018,
		Description: "Professional mining rig with high performance",
	},
	{
		Name:        "WhatsMiner M30S",
		Level:       1,
		Efficiency:  12.3,
		Cost:        450,
		Earnings:    0.0025,
		Description: "Industrial-grade mining rig for serious miners",
	},
	{
		Name:        "Avalon A1246",
		Level:       1,
		Efficiency:  15.8,
		Cost:        680,
		Earnings:    0.0035,
		Description: "High-end mining rig with maximum efficiency",
	},
}

// LookupRig finds a catalog rig by name, ignoring case and surrounding space.
func LookupRig(name string) (RigSpec, bool) {
	name = strings.TrimSpace(name)
	for _, r := range Catalog {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return RigSpec{}, false
}
