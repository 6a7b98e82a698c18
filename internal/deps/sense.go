package deps

import "strings"

// Sense holds the comparison and classification bits of a dependency.
type Sense uint32

const (
	SenseAny          Sense = 0
	SenseLess         Sense = 1 << 1
	SenseGreater      Sense = 1 << 2
	SenseEqual        Sense = 1 << 3
	SenseProvides     Sense = 1 << 4
	SenseConflicts    Sense = 1 << 5
	SensePrereq       Sense = 1 << 6
	SenseObsoletes    Sense = 1 << 7
	SenseInterp       Sense = 1 << 8
	SenseFindRequires Sense = 1 << 14
	SenseFindProvides Sense = 1 << 15
	SenseRPMLib       Sense = 1 << 24

	// SenseMask selects the comparison bits.
	SenseMask Sense = 0x0f
)

// Op renders the comparison bits as an operator: "<", ">", "=", "<=",
// ">=", or "" when no comparison applies.
func (f Sense) Op() string {
	var b strings.Builder
	if f&SenseLess != 0 {
		b.WriteByte('<')
	}
	if f&SenseGreater != 0 {
		b.WriteByte('>')
	}
	if f&SenseEqual != 0 {
		b.WriteByte('=')
	}
	return b.String()
}

// ParseOp is the inverse of Op. It reports false for anything that is not a
// comparison operator.
func ParseOp(op string) (Sense, bool) {
	switch op {
	case "<":
		return SenseLess, true
	case ">":
		return SenseGreater, true
	case "=", "==":
		return SenseEqual, true
	case "<=", "=<":
		return SenseLess | SenseEqual, true
	case ">=", "=>":
		return SenseGreater | SenseEqual, true
	case "<>", "!=":
		return SenseLess | SenseGreater, true
	}
	return SenseAny, false
}
