package engine

import (
	"fmt"
	"math/rand"

	"levelkit/core"
)

const (
	// MinAwardXP and MaxAwardXP bound the base per-message award.
	MinAwardXP = 1
	MaxAwardXP = 25
	// MaxMessageXP is the hard ceiling on a single message's XP after any
	// bonus is applied.
	MaxMessageXP = 75
	// MaxBonusMultiplier caps a multiplying bonus.
	MaxBonusMultiplier = 3
)

// Amount is a validated per-message XP amount: either a fixed value or an
// inclusive [min, max] range rolled uniformly per message.
type Amount struct {
	min, max int
}

// FixedAmount builds an Amount awarding exactly n XP, 1-25.
func FixedAmount(n int) (Amount, error) {
	if n < MinAwardXP || n > MaxAwardXP {
		return Amount{}, &core.ConfigError{Field: "amount", Reason: fmt.Sprintf("can only be a value from %d-%d", MinAwardXP, MaxAwardXP)}
	}
	return Amount{min: n, max: n}, nil
}

// RangeAmount builds an Amount rolled uniformly in [min, max]. Both bounds
// must be in 1-25, distinct, with min < max.
func RangeAmount(min, max int) (Amount, error) {
	if min < MinAwardXP || min > MaxAwardXP || max < MinAwardXP || max > MaxAwardXP {
		return Amount{}, &core.ConfigError{Field: "amount", Reason: fmt.Sprintf("range values can only be from %d-%d", MinAwardXP, MaxAwardXP)}
	}
	if min == max {
		return Amount{}, &core.ConfigError{Field: "amount", Reason: "range values must be unique"}
	}
	if max < min {
		return Amount{}, &core.ConfigError{Field: "amount", Reason: "range maximum must be larger than the minimum"}
	}
	return Amount{min: min, max: max}, nil
}

// DefaultAmount is the stock 15-25 per-message range.
func DefaultAmount() Amount { return Amount{min: 15, max: 25} }

func (a Amount) roll(r *rand.Rand) int64 {
	if a.min == a.max {
		return int64(a.min)
	}
	return int64(a.min + r.Intn(a.max-a.min+1))
}

// Bonus awards extra XP to members holding any of the qualifying roles. The
// bonus applies once, on the first matching role.
type Bonus struct {
	roleIDs  []int64
	amount   int64
	multiply bool
}

// NewBonus validates a bonus. A multiplying bonus is capped at x3; a flat
// bonus may be any positive amount since the final per-message value is
// clamped to MaxMessageXP regardless.
func NewBonus(roleIDs []int64, amount int64, multiply bool) (*Bonus, error) {
	if len(roleIDs) == 0 {
		return nil, &core.ConfigError{Field: "bonus", Reason: "role ID list cannot be empty"}
	}
	if amount <= 0 {
		return nil, &core.ConfigError{Field: "bonus", Reason: "bonus amount must be greater than zero"}
	}
	if multiply && amount > MaxBonusMultiplier {
		return nil, &core.ConfigError{Field: "bonus", Reason: fmt.Sprintf("bonus amount cannot be greater than %d when multiplying", MaxBonusMultiplier)}
	}
	ids := make([]int64, len(roleIDs))
	copy(ids, roleIDs)
	return &Bonus{roleIDs: ids, amount: amount, multiply: multiply}, nil
}

// apply returns base adjusted by the bonus if any of memberRoles qualifies,
// clamped to MaxMessageXP.
func (b *Bonus) apply(base int64, memberRoles []int64) int64 {
	if b == nil {
		return base
	}
	for _, have := range memberRoles {
		if b.qualifies(have) {
			if b.multiply {
				base *= b.amount
			} else {
				base += b.amount
			}
			if base > MaxMessageXP {
				base = MaxMessageXP
			}
			return base
		}
	}
	return base
}

func (b *Bonus) qualifies(roleID int64) bool {
	for _, id := range b.roleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
