package graph

import (
	"cmp"
	"math"
)

// Activation is one snapshot of a node's strength at a logical time.
type Activation struct {
	Time  int
	Value float64
}

// ActivationFunc folds a new snapshot into a node's activation history and
// returns the updated history. It is called every time an existing node is
// stored again, retrieved, or becomes current during query navigation.
type ActivationFunc func(history []Activation, snapshot Activation) []Activation

// NoActivation leaves the history unchanged. It is the default: a node keeps
// only the snapshot taken when it was created.
func NoActivation(history []Activation, _ Activation) []Activation {
	return history
}

// AppendActivation records every snapshot.
func AppendActivation(history []Activation, snapshot Activation) []Activation {
	return append(history, snapshot)
}

// BoundedActivation records every snapshot but keeps only the n most recent
// ones. n < 1 is treated as 1.
func BoundedActivation(n int) ActivationFunc {
	if n < 1 {
		n = 1
	}
	return func(history []Activation, snapshot Activation) []Activation {
		history = append(history, snapshot)
		if len(history) > n {
			history = append([]Activation(nil), history[len(history)-n:]...)
		}
		return history
	}
}

// activationAt is the strength of an access at logical time t:
// 1 at time zero, else 1/t rounded to two decimals, halves to even.
func activationAt(t int) float64 {
	if t == 0 {
		return 1
	}
	return math.RoundToEven(100/float64(t)) / 100
}

// compareHistory orders histories lexicographically by (Time, Value); when one
// history is a prefix of the other, the longer one is greater.
func compareHistory(a, b []Activation) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmp.Compare(a[i].Time, b[i].Time); c != 0 {
			return c
		}
		if c := cmp.Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}
