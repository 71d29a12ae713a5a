// Package logic holds the pure, side-effect-free output functions shared
// by the backend's update/tick dispatch and by the ConstantFold pass: both
// need to know what a comparator, repeater, or torch settles to given its
// inputs, and the formula must be identical in both places.
package logic

import "redpiler.dev/redpiler/internal/graph"

// ComparatorOutput implements §4.6's comparator output function: far
// override substitutes for the default input whenever one is present and
// the direct default input is below maximum strength.
func ComparatorOutput(mode graph.ComparatorMode, defaultIn, sideIn uint8, far int8) uint8 {
	effective := defaultIn
	if far != graph.NoFarOverride && defaultIn < 15 {
		effective = uint8(far)
	}
	if mode == graph.Compare {
		if effective >= sideIn {
			return effective
		}
		return 0
	}
	if effective > sideIn {
		return effective - sideIn
	}
	return 0
}

// RepeaterSettled reports the powered state a repeater settles to given a
// constant default input: high iff the input carries any signal at all
// (a repeater's output is boolean, not analog).
func RepeaterSettled(defaultIn uint8) bool { return defaultIn > 0 }

// TorchSettled reports whether a torch is lit given a constant input on
// its attachment block: a torch is an inverter, lit iff unpowered.
func TorchSettled(attachmentIn uint8) bool { return attachmentIn == 0 }

// MaxSubtractOutput returns the maximum possible output a subtract-mode
// comparator can produce given a fixed side input s, used by
// UnreachableOutput to prune links that can never carry signal.
func MaxSubtractOutput(side uint8) uint8 {
	if side >= 15 {
		return 0
	}
	return 15 - side
}
