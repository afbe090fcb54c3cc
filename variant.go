package slotdispatch

import (
	"fmt"
	"strings"
)

// Variant selects which receiver type the probe constructs. The C++ repro
// toggled base-vs-derived with a compile-time switch; here it is a runtime
// choice, extended with the additional hierarchy shapes the PySide repro
// exercised.
type Variant string

const (
	// VariantBase uses BaseReceiver: no override anywhere.
	VariantBase Variant = "base"
	// VariantDerived uses DerivedReceiver: the tick slot overridden in a
	// type embedding the base. The configuration the Qt bug report was
	// about.
	VariantDerived Variant = "derived"
	// VariantInherited uses a derived type that does NOT override the tick
	// slot, so the base implementation runs.
	VariantInherited Variant = "inherited"
	// VariantRelayBase uses RelayBase: the slot itself is fixed on the base
	// and dispatch happens through an overridable relay method.
	VariantRelayBase Variant = "relay-base"
	// VariantRelayDerived uses RelayDerived: the relay method overridden.
	VariantRelayDerived Variant = "relay-derived"
)

// Variants lists all recognised variants, in a stable order.
func Variants() []Variant {
	return []Variant{
		VariantBase,
		VariantDerived,
		VariantInherited,
		VariantRelayBase,
		VariantRelayDerived,
	}
}

// ParseVariant converts a string to a Variant, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variants() {
		if v == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("slotdispatch: unknown variant %q", s)
}

// String returns the variant's name.
func (v Variant) String() string { return string(v) }

// wantImpl returns the implementation tag this variant's runtime type
// should select for tick deliveries.
func (v Variant) wantImpl() string {
	switch v {
	case VariantDerived, VariantRelayDerived:
		return ImplDerived
	default:
		return ImplBase
	}
}
