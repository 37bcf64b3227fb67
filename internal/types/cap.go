// Package types implements type assembly, the reference-capability
// algebra, viewpoint adaptation, subtyping, and reification. The
// capability lattice and its bounds, the single odd subtyping case (ref
// is not a subcap of val), and the viewpoint/safe-to-write recursion over
// union/isect/tuple/nominal shapes are implemented exactly as the
// capability tables specify.
package types

import "github.com/quill-lang/quillc/internal/token"

// Cap is one of the six reference capabilities, ordered iso < trn < ref <
// val < box < tag to match token.Kind's ISO..TAG ordering.
type Cap int

const (
	Iso Cap = iota
	Trn
	Ref
	Val
	Box
	Tag
)

func (c Cap) String() string {
	switch c {
	case Iso:
		return "iso"
	case Trn:
		return "trn"
	case Ref:
		return "ref"
	case Val:
		return "val"
	case Box:
		return "box"
	case Tag:
		return "tag"
	default:
		return "?cap"
	}
}

// FromKind converts a capability token.Kind to a Cap.
func FromKind(k token.Kind) (Cap, bool) {
	switch k {
	case token.ISO:
		return Iso, true
	case token.TRN:
		return Trn, true
	case token.REF:
		return Ref, true
	case token.VAL:
		return Val, true
	case token.BOX:
		return Box, true
	case token.TAG:
		return Tag, true
	default:
		return 0, false
	}
}

// IsSubCap reports whether sub may be used wherever super is expected.
// The lattice is otherwise just the declaration order, except ref is not
// a subcap of val: a ref alias lets you mutate the referent, so it can't
// stand in for an immutable val.
func IsSubCap(sub, super Cap) bool {
	if sub == Ref && super == Val {
		return false
	}
	return sub <= super
}

// UpperBounds returns the least capability that both a and b are subcaps
// of. When neither is a subcap of the other (the ref/val case), the join
// is box: readable either way, writable by neither.
func UpperBounds(a, b Cap) Cap {
	if IsSubCap(a, b) {
		return b
	}
	if IsSubCap(b, a) {
		return a
	}
	return Box
}

// LowerBounds returns the greatest capability both a and b subcap. It
// returns false when neither subcaps the other; CapOf then keeps the
// capability it already had and reports nothing. That case is rare, since Quill's type assembler never builds an
// isect of ref and val directly — only through type parameter constraints,
// which are checked before this is called.
func LowerBounds(a, b Cap) (Cap, bool) {
	if IsSubCap(a, b) {
		return a, true
	}
	if IsSubCap(b, a) {
		return b, true
	}
	return 0, false
}

// Sendable reports whether a value of this capability can cross an actor
// behaviour boundary without aliasing violations: only iso,
// val, and tag carry no aliasable mutable state.
func Sendable(c Cap) bool {
	switch c {
	case Iso, Val, Tag:
		return true
	default:
		return false
	}
}

// viewpointTable is the 6x6 table from spec §4.8, indexed [view][cap].
// A tag view can't read at all; its row is all tag, matching how every
// other row degrades anything it can't safely expose down to tag.
var viewpointTable = [6][6]Cap{
	Iso: {Iso, Tag, Tag, Val, Tag, Tag},
	Trn: {Iso, Trn, Box, Val, Box, Tag},
	Ref: {Iso, Trn, Ref, Val, Box, Tag},
	Val: {Val, Val, Val, Val, Val, Tag},
	Box: {Tag, Box, Box, Val, Box, Tag},
	Tag: {Tag, Tag, Tag, Tag, Tag, Tag},
}

// Viewpoint adapts cap as seen through a field or variable accessed via a
// receiver of capability view, per the table in spec §4.8.
func Viewpoint(view, cap Cap) Cap {
	return viewpointTable[view][cap]
}

// SafeToWrite reports whether a field or local of capability cap may be
// assigned through a receiver of capability into, per spec §4.8: ref
// permits any write; trn and iso permit a sendable value (the assignment
// consumes the RHS, so it never aliases the old value); val, box, and tag
// permit nothing.
func SafeToWrite(into, cap Cap) bool {
	switch into {
	case Ref:
		return true
	case Trn, Iso:
		return Sendable(cap)
	default: // Val, Box, Tag
		return false
	}
}
