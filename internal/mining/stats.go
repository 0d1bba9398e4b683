// Package mining simulates the network side of the operation: hash-rate
// statistics, periodic earnings and static profitability estimates.
package mining

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/talgya/rigsim/internal/economy"
	"github.com/talgya/rigsim/internal/entropy"
)

// Model constants.
const (
	DefaultInterval     = 5 * time.Second // Simulated time between generator ticks
	EarningsRatePerTick = 0.001           // BTC per TH/s per tick before jitter
	JitterLow           = 0.8
	JitterHigh          = 1.2

	HashesPerPower  = 1e12 // H/s per TH/s
	Difficulty      = 5e13
	BlockReward     = 6.25
	NetworkHashRate = 4e20 // H/s
	BlocksPerHour   = 6

	TicksPerHour           = 12
	WattsPerPower          = 100 // Draw per TH/s
	DefaultElectricityCost = 0.1 // Per kWh
)

// Stats is one tick's view of the network. HashRate is in H/s and
// EstimatedEarnings in BTC per hour.
type Stats struct {
	HashRate          float64 `json:"hash_rate"`
	Difficulty        float64 `json:"difficulty"`
	BlockReward       float64 `json:"block_reward"`
	EstimatedEarnings float64 `json:"estimated_earnings"`
}

// CalculateStats derives network stats from mining power.
func CalculateStats(power float64) Stats {
	hashRate := power * HashesPerPower
	return Stats{
		HashRate:          hashRate,
		Difficulty:        Difficulty,
		BlockReward:       BlockReward,
		EstimatedEarnings: hashRate / NetworkHashRate * BlockReward * BlocksPerHour,
	}
}

// CalculateEarnings returns one tick's earnings with ±20% jitter drawn from src.
func CalculateEarnings(power float64, src entropy.Source) float64 {
	return power * EarningsRatePerTick * entropy.Uniform(src, JitterLow, JitterHigh)
}

// Profitability is a daily estimate at constant power.
type Profitability struct {
	DailyEarnings float64 `json:"daily_earnings"`
	DailyCosts    float64 `json:"daily_costs"`
	DailyProfit   float64 `json:"daily_profit"`
}

// CalculateProfitability estimates a day of mining without jitter.
// electricityCost is the price per kWh.
func CalculateProfitability(power, electricityCost float64) Profitability {
	earnings := power * EarningsRatePerTick * 24 * TicksPerHour
	kilowatts := power * WattsPerPower / 1000
	costs := kilowatts * 24 * electricityCost
	return Profitability{
		DailyEarnings: earnings,
		DailyCosts:    costs,
		DailyProfit:   earnings - costs,
	}
}

var hashUnits = []struct {
	scale float64
	unit  string
}{
	{1e18, "EH/s"},
	{1e15, "PH/s"},
	{1e12, "TH/s"},
	{1e9, "GH/s"},
	{1e6, "MH/s"},
}

// FormatHashRate renders h in the largest unit it reaches, two decimals.
func FormatHashRate(h float64) string {
	for _, u := range hashUnits {
		if h >= u.scale {
			return fmt.Sprintf("%.2f %s", h/u.scale, u.unit)
		}
	}
	return fmt.Sprintf("%.2f H/s", h)
}

// OptimalRigConfiguration greedily spends budget on the rigs with the best
// TH/s per unit of cost, buying each as many times as it fits before moving on.
func OptimalRigConfiguration(budget float64, rigs []economy.RigSpec) []economy.RigSpec {
	ranked := make([]economy.RigSpec, 0, len(rigs))
	for _, r := range rigs {
		if r.Cost > 0 && r.Efficiency > 0 {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Efficiency/ranked[i].Cost > ranked[j].Efficiency/ranked[j].Cost
	})

	var selected []economy.RigSpec
	remaining := budget
	for _, r := range ranked {
		for remaining >= r.Cost {
			selected = append(selected, r)
			remaining -= r.Cost
		}
	}
	return selected
}

// BreakEvenDays returns how many days of profit repay rigCost.
// Unprofitable operations never break even.
func BreakEvenDays(rigCost, dailyProfit float64) float64 {
	if dailyProfit <= 0 {
		return math.Inf(1)
	}
	return rigCost / dailyProfit
}
