package main

import (
	"encoding/binary"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// The helpers below hand-encode the bytes this package's parsers
// decode, mirroring how the reference fixtures for this format are
// usually built: by constructing known-good pages rather than shipping
// a binary sample file. They exist only for this test file.

func encodeVarintForTest(v uint64) []byte {
	if v <= 0x7f {
		return []byte{byte(v)}
	}
	var groups []byte
	for v > 0 {
		groups = append(groups, byte(v&0x7f))
		v >>= 7
	}
	out := make([]byte, 0, len(groups))
	for i := len(groups) - 1; i >= 1; i-- {
		out = append(out, groups[i]|0x80)
	}
	return append(out, groups[0])
}

func serialAndBodyForTest(v Value) (uint64, []byte) {
	switch v.Type {
	case ValueTypeNull:
		return 0, nil
	case ValueTypeInteger:
		if v.Int >= -128 && v.Int <= 127 {
			return 1, []byte{byte(int8(v.Int))}
		}
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v.Int))
		return 6, b
	case ValueTypeText:
		b := []byte(v.Str)
		return uint64(13 + 2*len(b)), b
	default:
		return 0, nil
	}
}

func buildRecordBytesForTest(values []Value) []byte {
	var headerBody []byte
	var bodies []byte
	for _, v := range values {
		st, body := serialAndBodyForTest(v)
		headerBody = append(headerBody, encodeVarintForTest(st)...)
		bodies = append(bodies, body...)
	}
	headerLenBytes := encodeVarintForTest(uint64(1 + len(headerBody)))
	if len(headerLenBytes) != 1 {
		headerLenBytes = encodeVarintForTest(uint64(len(headerLenBytes) + len(headerBody)))
	}
	rec := append([]byte{}, headerLenBytes...)
	rec = append(rec, headerBody...)
	rec = append(rec, bodies...)
	return rec
}

func buildLeafTableCellForTest(rowID int64, values []Value) []byte {
	record := buildRecordBytesForTest(values)
	cell := append([]byte{}, encodeVarintForTest(uint64(len(record)))...)
	cell = append(cell, encodeVarintForTest(uint64(rowID))...)
	return append(cell, record...)
}

func buildLeafIndexCellForTest(values []Value) []byte {
	record := buildRecordBytesForTest(values)
	cell := append([]byte{}, encodeVarintForTest(uint64(len(record)))...)
	return append(cell, record...)
}

// buildLeafPageForTest lays cells out back-to-front from the end of the
// page, exactly as SQLite's free-space model does, and writes the cell
// pointer array right after the page header.
func buildLeafPageForTest(pageSize, headerOffset int, pageType byte, cells [][]byte) []byte {
	buf := make([]byte, pageSize)
	buf[headerOffset] = pageType

	contentStart := pageSize
	offsets := make([]int, len(cells))
	for i := len(cells) - 1; i >= 0; i-- {
		contentStart -= len(cells[i])
		offsets[i] = contentStart
		copy(buf[contentStart:], cells[i])
	}

	binary.BigEndian.PutUint16(buf[headerOffset+1:], 0)
	binary.BigEndian.PutUint16(buf[headerOffset+3:], uint16(len(cells)))
	binary.BigEndian.PutUint16(buf[headerOffset+5:], uint16(contentStart))
	buf[headerOffset+7] = 0

	ptrStart := headerOffset + 8
	for i, off := range offsets {
		binary.BigEndian.PutUint16(buf[ptrStart+i*2:], uint16(off))
	}
	return buf
}

func writeDatabaseHeaderForTest(buf []byte, pageSize uint16, numPages uint32) {
	copy(buf[0:16], magicString)
	binary.BigEndian.PutUint16(buf[16:18], pageSize)
	buf[20] = 0
	binary.BigEndian.PutUint32(buf[28:32], numPages)
	binary.BigEndian.PutUint32(buf[56:60], 1) // UTF-8
}

const testCreateApplesSQL = `CREATE TABLE apples (id integer primary key, name text, color text)`
const testCreateIndexSQL = `CREATE INDEX idx_apples_name ON apples (name)`
const testCreateOrangesSQL = `CREATE TABLE oranges (id integer primary key, name text)`

// buildFixtureDB constructs a 4-page database: the schema page (1), the
// apples table (2), idx_apples_name (3), and an empty second table
// oranges (4) whose only purpose is to make sure a two-table database
// is exercised (.dbinfo's table count, .tables' one-name-per-line
// output), with the same row content as the end-to-end scenarios this
// engine is specified against.
func buildFixtureDB(t *testing.T) string {
	t.Helper()
	const pageSize = 512

	schemaCells := [][]byte{
		buildLeafTableCellForTest(1, []Value{
			TextValue("table"), TextValue("apples"), TextValue("apples"),
			IntegerValue(2), TextValue(testCreateApplesSQL),
		}),
		buildLeafTableCellForTest(2, []Value{
			TextValue("index"), TextValue("idx_apples_name"), TextValue("apples"),
			IntegerValue(3), TextValue(testCreateIndexSQL),
		}),
		buildLeafTableCellForTest(3, []Value{
			TextValue("table"), TextValue("oranges"), TextValue("oranges"),
			IntegerValue(4), TextValue(testCreateOrangesSQL),
		}),
	}
	page1 := buildLeafPageForTest(pageSize, databaseHeaderSize, byte(PageTypeLeafTable), schemaCells)
	writeDatabaseHeaderForTest(page1, pageSize, 4)

	applesCells := [][]byte{
		buildLeafTableCellForTest(1, []Value{NullValue(), TextValue("Granny Smith"), TextValue("Light Green")}),
		buildLeafTableCellForTest(2, []Value{NullValue(), TextValue("Fuji"), TextValue("Red")}),
		buildLeafTableCellForTest(3, []Value{NullValue(), TextValue("Honeycrisp"), TextValue("Blush Red")}),
		buildLeafTableCellForTest(4, []Value{NullValue(), TextValue("Golden Delicious"), TextValue("Yellow")}),
	}
	page2 := buildLeafPageForTest(pageSize, 0, byte(PageTypeLeafTable), applesCells)

	indexCells := [][]byte{
		buildLeafIndexCellForTest([]Value{TextValue("Fuji"), IntegerValue(2)}),
		buildLeafIndexCellForTest([]Value{TextValue("Golden Delicious"), IntegerValue(4)}),
		buildLeafIndexCellForTest([]Value{TextValue("Granny Smith"), IntegerValue(1)}),
		buildLeafIndexCellForTest([]Value{TextValue("Honeycrisp"), IntegerValue(3)}),
	}
	page3 := buildLeafPageForTest(pageSize, 0, byte(PageTypeLeafIndex), indexCells)

	page4 := buildLeafPageForTest(pageSize, 0, byte(PageTypeLeafTable), nil)

	f, err := os.CreateTemp(t.TempDir(), "fixture-*.db")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write(page1)
	require.NoError(t, err)
	_, err = f.Write(page2)
	require.NoError(t, err)
	_, err = f.Write(page3)
	require.NoError(t, err)
	_, err = f.Write(page4)
	require.NoError(t, err)

	return f.Name()
}

func captureOutput(t *testing.T, fn func(out io.Writer) error) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	runErr := fn(w)
	w.Close()

	buf := make([]byte, 64*1024)
	n, _ := r.Read(buf)
	r.Close()

	require.NoError(t, runErr)
	return string(buf[:n])
}

func openFixtureDB(t *testing.T) *Database {
	t.Helper()
	path := buildFixtureDB(t)
	db, err := OpenDatabase(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEndToEndDbinfo(t *testing.T) {
	db := openFixtureDB(t)
	out := captureOutput(t, func(w io.Writer) error { return runCommand(db, ".dbinfo", w) })
	require.Equal(t, "database page size: 512\nnumber of tables: 2\n", out)
}

func TestEndToEndTables(t *testing.T) {
	db := openFixtureDB(t)
	out := captureOutput(t, func(w io.Writer) error { return runCommand(db, ".tables", w) })
	require.Equal(t, "apples\noranges\n", out)
}

func TestEndToEndCountStar(t *testing.T) {
	db := openFixtureDB(t)
	out := captureOutput(t, func(w io.Writer) error {
		return runCommand(db, "SELECT COUNT(*) FROM apples", w)
	})
	require.Equal(t, "4\n", out)
}

func TestEndToEndProjectedColumns(t *testing.T) {
	db := openFixtureDB(t)
	out := captureOutput(t, func(w io.Writer) error {
		return runCommand(db, "SELECT name, color FROM apples", w)
	})
	require.Equal(t, "Granny Smith|Light Green\nFuji|Red\nHoneycrisp|Blush Red\nGolden Delicious|Yellow\n", out)
}

func TestEndToEndWhereFullScanResidual(t *testing.T) {
	db := openFixtureDB(t)
	out := captureOutput(t, func(w io.Writer) error {
		return runCommand(db, "SELECT id, name FROM apples WHERE color = 'Yellow'", w)
	})
	require.Equal(t, "4|Golden Delicious\n", out)
}

func TestEndToEndWhereUsesIndex(t *testing.T) {
	db := openFixtureDB(t)
	out := captureOutput(t, func(w io.Writer) error {
		return runCommand(db, "SELECT * FROM apples WHERE name = 'Fuji'", w)
	})
	require.Equal(t, "2|Fuji|Red\n", out)
}

func TestEndToEndUnknownColumnErrors(t *testing.T) {
	db := openFixtureDB(t)
	err := runCommand(db, "SELECT bogus FROM apples", io.Discard)
	require.Error(t, err)
}

func TestEndToEndUnknownTableErrors(t *testing.T) {
	db := openFixtureDB(t)
	err := runCommand(db, "SELECT * FROM pears", io.Discard)
	require.Error(t, err)
}
