package growth

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// GrowthPolicy picks the capacity a Sequence grows to when required elements
// no longer fit into capacity. Results smaller than required are raised to
// required by the Sequence.
type GrowthPolicy func(capacity, required int) int

// Doubling doubles the capacity, the strategy of the classic vector.
// An empty sequence grows to exactly what is required.
func Doubling(capacity, required int) int {
	newCap := capacity * 2
	if newCap < required {
		newCap = required
	}
	return newCap
}

// Quarter grows by at least 25%.
func Quarter(capacity, required int) int {
	newCap := capacity * 5 / 4
	if newCap < required {
		newCap = required
	}
	return newCap
}

// Runtime grows the way the Go runtime grows a []int.
func Runtime(capacity, required int) int {
	s := make([]int, capacity)
	return cap(append(s, make([]int, required-capacity)...))
}

// Exact grows to exactly the required capacity, reallocating on every append
// that does not fit.
func Exact(capacity, required int) int {
	return required
}

var policies = map[string]GrowthPolicy{
	"doubling": Doubling,
	"quarter":  Quarter,
	"runtime":  Runtime,
	"exact":    Exact,
}

// PolicyNames lists the names ParsePolicy accepts, sorted.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePolicy resolves a policy by name, ignoring case.
func ParsePolicy(name string) (GrowthPolicy, error) {
	if p, ok := policies[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return nil, errors.Wrapf(ErrUnknownPolicy, "%q (want one of %s)", name, strings.Join(PolicyNames(), ", "))
}
