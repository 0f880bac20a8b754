package content

import (
	"fmt"
	"strings"
)

// Kind selects a template pool and is the type half of the dedup key.
type Kind string

const (
	Quick     Kind = "quick"
	Full      Kind = "full"
	Preview   Kind = "preview"
	Result    Kind = "result"
	Spotlight Kind = "spotlight"
	Transfer  Kind = "transfer"
	Tactical  Kind = "tactical"
)

// Kinds lists every kind in a stable order.
func Kinds() []Kind {
	return []Kind{Quick, Full, Preview, Result, Spotlight, Transfer, Tactical}
}

func (k Kind) Valid() bool {
	for _, v := range Kinds() {
		if v == k {
			return true
		}
	}
	return false
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown content kind %q", s)
	}
	return k, nil
}

// Random is the source of randomness for template filling. *math/rand.Rand
// satisfies it.
type Random interface {
	Intn(n int) int
}

// pick returns a uniformly chosen element, or fallback for an empty pool.
func pick(r Random, pool []string, fallback string) string {
	if len(pool) == 0 {
		return fallback
	}
	return pool[r.Intn(len(pool))]
}

// between returns a uniform integer in [lo, hi].
func between(r Random, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}
