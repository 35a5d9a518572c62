package adbg_test

import (
	"strings"
	"testing"

	"github.com/securetee/xtest/adbg"
	"github.com/securetee/xtest/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexDumpShortRowIsPadded(t *testing.T) {
	rows := adbg.HexDumpRows([]byte{0x61, 0x62, 0x63}, 16)
	require.Len(t, rows, 1)
	assert.Equal(t, "  61 62 63"+strings.Repeat(" ", 48-len("61 62 63"))+" abc", rows[0])
}

func TestHexDumpFullRow(t *testing.T) {
	rows := adbg.HexDumpRows([]byte("0123"), 4)
	require.Len(t, rows, 1)
	assert.Equal(t, "  30 31 32 33  0123", rows[0])
}

func TestHexDumpNonPrintable(t *testing.T) {
	rows := adbg.HexDumpRows([]byte{0x00, 0x41, 0x7f, 0x1f, 0xff}, 8)
	require.Len(t, rows, 1)
	assert.True(t, strings.HasSuffix(rows[0], " .A..."), rows[0])
	assert.True(t, strings.HasPrefix(rows[0], "  00 41 7f 1f ff "), rows[0])
}

func TestHexDumpRowCount(t *testing.T) {
	assert.Len(t, adbg.HexDumpRows(nil, 16), 0)
	assert.Len(t, adbg.HexDumpRows(make([]byte, 16), 16), 1)
	assert.Len(t, adbg.HexDumpRows(make([]byte, 17), 16), 2)
	assert.Len(t, adbg.HexDumpRows(make([]byte, 33), 16), 3)
	assert.Len(t, adbg.HexDumpRows(make([]byte, 10), 3), 4)
}

func TestHexDumpAsciiColumnAligned(t *testing.T) {
	rows := adbg.HexDumpRows([]byte("abcdefghijklmnopqr"), 16)
	require.Len(t, rows, 2)
	assert.Equal(t, strings.Index(rows[0], "abc"), strings.Index(rows[1], "qr"))
}

func TestHexDumpDefaultColumns(t *testing.T) {
	assert.Equal(t, adbg.HexDumpRows(make([]byte, 20), 16), adbg.HexDumpRows(make([]byte, 20), 0))
}

func TestHexLog(t *testing.T) {
	logger := &framework.CapturingLogger{}
	adbg.HexLog(logger, []byte("hello, world, again"), 8)
	assert.Equal(t, adbg.HexDumpRows([]byte("hello, world, again"), 8), logger.Output().Messages())

	c := adbg.NewCase("x", logger)
	c.HexLog([]byte{1})
	c.Log("n=%d", 3)
	messages := logger.Output().Messages()
	assert.Equal(t, "n=3", messages[len(messages)-1])
	assert.True(t, c.Passed())
}
