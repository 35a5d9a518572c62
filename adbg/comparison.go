package adbg

// Comparison is a relational operator for the ExpectCompare methods. Its string value is the
// operator as it appears in diagnostics.
type Comparison string

const (
	LT Comparison = "<"
	LE Comparison = "<="
	EQ Comparison = "=="
	NE Comparison = "!="
	GT Comparison = ">"
	GE Comparison = ">="
)

// holds reports whether the operator is satisfied by a three-way comparison result (-1, 0, 1).
// Unknown operators never hold.
func (op Comparison) holds(cmp int) bool {
	switch op {
	case LT:
		return cmp < 0
	case LE:
		return cmp <= 0
	case EQ:
		return cmp == 0
	case NE:
		return cmp != 0
	case GT:
		return cmp > 0
	case GE:
		return cmp >= 0
	}
	return false
}

func compareSigned(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareUnsigned(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
