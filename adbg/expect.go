package adbg

import (
	"bytes"
	"fmt"
	"reflect"
)

// compareBytes is the content check used by ExpectBuffer. It is only called when the two
// lengths already match.
var compareBytes = bytes.Equal

// Expect checks that an integer value, such as a result code, equals the expected value.
// Values are reported in hexadecimal.
func (c *Case) Expect(expected, got int64, gotExpr string) bool {
	if got == expected {
		return true
	}
	c.fail(nil, "%s has an unexpected value: %s, expected %s", gotExpr, formatHex(got), formatHex(expected))
	return false
}

// ExpectNot checks that an integer value differs from notExpected.
func (c *Case) ExpectNot(notExpected, got int64, gotExpr string) bool {
	if got != notExpected {
		return true
	}
	c.fail(nil, "%s has an unexpected value: %s, expected %s", gotExpr, formatHex(got), formatHex(notExpected))
	return false
}

// ExpectBool checks a boolean value. It is reported like an integer, as 0x0 or 0x1.
func (c *Case) ExpectBool(expected, got bool, gotExpr string) bool {
	if got == expected {
		return true
	}
	c.fail(nil, "%s has an unexpected value: %s, expected %s", gotExpr, formatHex(boolToInt(got)), formatHex(boolToInt(expected)))
	return false
}

// ExpectTrue is ExpectBool(true, got, gotExpr).
func (c *Case) ExpectTrue(got bool, gotExpr string) bool {
	if got {
		return true
	}
	c.fail(nil, "%s has an unexpected value: %s, expected %s", gotExpr, formatHex(0), formatHex(1))
	return false
}

// ExpectBuffer checks that got has the same length and content as expected. A length
// mismatch is reported on its own, without looking at the content. A content mismatch is
// reported with a full dump of both buffers rather than the position of the first difference.
func (c *Case) ExpectBuffer(expected, got []byte, gotExpr string) bool {
	if len(expected) != len(got) {
		c.fail(nil, "len(%s) has an unexpected value: %d, expected %d", gotExpr, len(got), len(expected))
		return false
	}
	if compareBytes(expected, got) {
		return true
	}
	var extra []string
	extra = append(extra, "Got:")
	extra = append(extra, HexDumpRows(got, DefaultColumns)...)
	extra = append(extra, "Expected:")
	extra = append(extra, HexDumpRows(expected, DefaultColumns)...)
	c.fail(extra, "%s has an unexpected content:", gotExpr)
	return false
}

// ExpectPointer checks that got refers to the same object as expected. Both values must be
// pointers or other reference values (maps, slices, channels, functions) or nil.
func (c *Case) ExpectPointer(expected, got interface{}, gotExpr string) bool {
	expectedAddr, ok1 := addressOf(expected)
	gotAddr, ok2 := addressOf(got)
	if !ok1 || !ok2 {
		c.fail(nil, "%s cannot be compared as a pointer: %T, expected %T", gotExpr, got, expected)
		return false
	}
	if gotAddr == expectedAddr {
		return true
	}
	c.fail(nil, "%s has an unexpected value: %s, expected %s", gotExpr, formatPointer(gotAddr), formatPointer(expectedAddr))
	return false
}

// ExpectNotNil checks that got is not nil. A non-nil value that is not a reference type
// always passes.
func (c *Case) ExpectNotNil(got interface{}, gotExpr string) bool {
	addr, isRef := addressOf(got)
	if got != nil && (!isRef || addr != 0) {
		return true
	}
	c.fail(nil, "%s has an unexpected value: %s, expected not-null", gotExpr, formatPointer(addr))
	return false
}

// ExpectCompareSigned checks a relational expression on signed integers, for instance
// c.ExpectCompareSigned(n, adbg.LE, max, "n", "max"). Values are reported in decimal.
func (c *Case) ExpectCompareSigned(value1 int64, op Comparison, value2 int64, value1Expr, value2Expr string) bool {
	if op.holds(compareSigned(value1, value2)) {
		return true
	}
	c.fail(nil, "Expression \"%s %s %s\" (%d %s %d) is false",
		value1Expr, op, value2Expr, value1, op, value2)
	return false
}

// ExpectCompareUnsigned checks a relational expression on unsigned integers.
func (c *Case) ExpectCompareUnsigned(value1 uint64, op Comparison, value2 uint64, value1Expr, value2Expr string) bool {
	if op.holds(compareUnsigned(value1, value2)) {
		return true
	}
	c.fail(nil, "Expression \"%s %s %s\" (%d %s %d) is false",
		value1Expr, op, value2Expr, value1, op, value2)
	return false
}

// ExpectComparePointer checks a relational expression on the addresses of two reference
// values. A value that is not a reference compares as address 0.
func (c *Case) ExpectComparePointer(value1 interface{}, op Comparison, value2 interface{}, value1Expr, value2Expr string) bool {
	addr1, _ := addressOf(value1)
	addr2, _ := addressOf(value2)
	if op.holds(compareUnsigned(uint64(addr1), uint64(addr2))) {
		return true
	}
	c.fail(nil, "Expression \"%s %s %s\" (%s %s %s) is false",
		value1Expr, op, value2Expr, formatPointer(addr1), op, formatPointer(addr2))
	return false
}

// addressOf returns the address held by a reference value. The second result is false for
// non-nil values that are not references.
func addressOf(p interface{}) (uintptr, bool) {
	if p == nil {
		return 0, true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Ptr, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice:
		return v.Pointer(), true
	case reflect.Uintptr:
		return uintptr(v.Uint()), true
	}
	return 0, false
}

// formatHex renders negative values as their 64-bit two's complement.
func formatHex(v int64) string {
	return fmt.Sprintf("0x%x", uint64(v))
}

func formatPointer(addr uintptr) string {
	return fmt.Sprintf("0x%x", addr)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
