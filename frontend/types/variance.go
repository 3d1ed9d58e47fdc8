package types

import (
	"fmt"
	"strings"
)

// Variance is either the declaration-site variance of a class type parameter,
// or the position a type parameter being inferred occurs at
type Variance uint8

const (
	Invariant Variance = iota
	// In is a contravariant (consuming) position
	In
	// Out is a covariant (producing) position
	Out
)

func (v Variance) String() string {
	switch v {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "inv"
	}
}

// Flip swaps In and Out, and leaves Invariant untouched
func (v Variance) Flip() Variance {
	switch v {
	case In:
		return Out
	case Out:
		return In
	default:
		return Invariant
	}
}

// Compose returns the variance of a position with variance inner nested inside
// a position with variance v
func (v Variance) Compose(inner Variance) Variance {
	switch {
	case v == Invariant || inner == Invariant:
		return Invariant
	case v == Out:
		return inner
	default:
		return inner.Flip()
	}
}

func ParseVariance(s string) (Variance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inv", "invariant":
		return Invariant, nil
	case "in", "contravariant":
		return In, nil
	case "out", "covariant":
		return Out, nil
	}
	return Invariant, fmt.Errorf("unknown variance '%s'", s)
}
