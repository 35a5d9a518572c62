package adbg

import (
	"fmt"
	"strings"

	"github.com/securetee/xtest/framework"
)

// DefaultColumns is the number of bytes per row in buffer dumps.
const DefaultColumns = 16

// HexDumpRows renders buf as rows of columns bytes each. A row is a two-space indent, the hex
// values of the bytes left-justified in a field of columns*3 characters, a space, and the
// bytes as ASCII with non-printable characters shown as '.'. The hex field is padded on a
// short final row so the ASCII column stays aligned. columns <= 0 means DefaultColumns.
func HexDumpRows(buf []byte, columns int) []string {
	if columns <= 0 {
		columns = DefaultColumns
	}
	rows := make([]string, 0, (len(buf)+columns-1)/columns)
	for n := 0; n < len(buf); n += columns {
		end := n + columns
		if end > len(buf) {
			end = len(buf)
		}
		rows = append(rows, formatRow(buf[n:end], columns))
	}
	return rows
}

func formatRow(row []byte, columns int) string {
	var hexField strings.Builder
	ascii := make([]byte, len(row))
	for i, b := range row {
		if i > 0 {
			hexField.WriteByte(' ')
		}
		fmt.Fprintf(&hexField, "%02x", b)
		if b >= 0x20 && b <= 0x7e {
			ascii[i] = b
		} else {
			ascii[i] = '.'
		}
	}
	return fmt.Sprintf("  %-*s %s", columns*3, hexField.String(), ascii)
}

// HexLog writes the rows of HexDumpRows to logger, one line per row.
func HexLog(logger framework.Logger, buf []byte, columns int) {
	for _, row := range HexDumpRows(buf, columns) {
		logger.Printf("%s", row)
	}
}
