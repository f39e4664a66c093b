package main

import (
	"encoding/binary"
	"io"
)

const (
	databaseHeaderSize = 100
	magicString        = "SQLite format 3\x00"
)

// PageType identifies a B-tree page's cell shape.
type PageType byte

const (
	PageTypeInteriorIndex PageType = 0x02
	PageTypeInteriorTable PageType = 0x05
	PageTypeLeafIndex     PageType = 0x0a
	PageTypeLeafTable     PageType = 0x0d
)

func (t PageType) IsLeaf() bool {
	return t == PageTypeLeafIndex || t == PageTypeLeafTable
}

func (t PageType) IsTable() bool {
	return t == PageTypeInteriorTable || t == PageTypeLeafTable
}

func (t PageType) IsIndex() bool {
	return t == PageTypeInteriorIndex || t == PageTypeLeafIndex
}

func (t PageType) valid() bool {
	switch t {
	case PageTypeInteriorIndex, PageTypeInteriorTable, PageTypeLeafIndex, PageTypeLeafTable:
		return true
	default:
		return false
	}
}

// DatabaseHeader is the fixed 100-byte header at the start of page 1.
type DatabaseHeader struct {
	PageSize       uint32
	ReservedBytes  byte
	NumPages       uint32
	TextEncoding   uint32
}

func parseDatabaseHeader(buf []byte) (DatabaseHeader, error) {
	if len(buf) < databaseHeaderSize {
		return DatabaseHeader{}, NewDatabaseError("parse_database_header", ErrIO, map[string]interface{}{
			"want": databaseHeaderSize, "got": len(buf),
		})
	}
	if string(buf[0:16]) != magicString {
		return DatabaseHeader{}, NewDatabaseError("parse_database_header", ErrInvalidMagic, nil)
	}

	rawPageSize := binary.BigEndian.Uint16(buf[16:18])
	var pageSize uint32
	if rawPageSize == 1 {
		pageSize = 65536
	} else {
		pageSize = uint32(rawPageSize)
	}

	return DatabaseHeader{
		PageSize:      pageSize,
		ReservedBytes: buf[20],
		NumPages:      binary.BigEndian.Uint32(buf[28:32]),
		TextEncoding:  binary.BigEndian.Uint32(buf[56:60]),
	}, nil
}

// PageHeader is the 8 (leaf) or 12 (interior) byte B-tree page header
// that follows the database header on page 1, or starts a page outright
// elsewhere.
type PageHeader struct {
	Type             PageType
	FirstFreeblock   uint16
	CellCount        uint16
	CellContentStart uint16
	FragmentedBytes  byte
	RightMostPointer uint32 // interior pages only
}

func (h PageHeader) size() int {
	if h.Type.IsLeaf() {
		return 8
	}
	return 12
}

func parsePageHeader(buf []byte) (PageHeader, error) {
	if len(buf) < 8 {
		return PageHeader{}, NewDatabaseError("parse_page_header", ErrIO, nil)
	}
	t := PageType(buf[0])
	if !t.valid() {
		return PageHeader{}, NewDatabaseError("parse_page_header", ErrBadPageType, map[string]interface{}{
			"byte": buf[0],
		})
	}

	h := PageHeader{
		Type:             t,
		FirstFreeblock:   binary.BigEndian.Uint16(buf[1:3]),
		CellCount:        binary.BigEndian.Uint16(buf[3:5]),
		CellContentStart: binary.BigEndian.Uint16(buf[5:7]),
		FragmentedBytes:  buf[7],
	}
	if !t.IsLeaf() {
		if len(buf) < 12 {
			return PageHeader{}, NewDatabaseError("parse_page_header", ErrIO, nil)
		}
		h.RightMostPointer = binary.BigEndian.Uint32(buf[8:12])
	}
	return h, nil
}

// Pager reads whole pages from a database file into memory. Pages are
// read synchronously and not cached beyond the caller's own reference to
// the returned buffer: there is no shared page cache (see the
// concurrency model).
type Pager struct {
	r        io.ReaderAt
	pageSize uint32
}

func newPager(r io.ReaderAt, pageSize uint32) *Pager {
	return &Pager{r: r, pageSize: pageSize}
}

// ReadPage returns the raw bytes of page number pageNum (1-indexed, as
// SQLite numbers pages). Page 1 includes the 100-byte database header at
// its start; callers that want only the B-tree page header and cells
// must skip it themselves.
func (p *Pager) ReadPage(pageNum uint32) ([]byte, error) {
	if pageNum == 0 {
		return nil, NewDatabaseError("read_page", ErrArgument, map[string]interface{}{"page": pageNum})
	}
	offset := int64(pageNum-1) * int64(p.pageSize)
	buf := make([]byte, p.pageSize)
	if _, err := p.r.ReadAt(buf, offset); err != nil {
		return nil, NewDatabaseError("read_page", ErrIO, map[string]interface{}{
			"page": pageNum, "cause": err.Error(),
		})
	}
	return buf, nil
}

// pageHeaderOffset returns where the B-tree page header starts within a
// raw page buffer: 100 bytes in for page 1 (it shares its page with the
// database header), 0 otherwise.
func pageHeaderOffset(pageNum uint32) int {
	if pageNum == 1 {
		return databaseHeaderSize
	}
	return 0
}

// cellPointers reads the cell pointer array that follows a page header,
// resolving each to an absolute offset within the page buffer.
func cellPointers(buf []byte, header PageHeader, headerOffset int) ([]uint16, error) {
	start := headerOffset + header.size()
	ptrs := make([]uint16, header.CellCount)
	for i := 0; i < int(header.CellCount); i++ {
		off := start + i*2
		if off+2 > len(buf) {
			return nil, NewDatabaseError("read_cell_pointers", ErrInvalidCellPointer, map[string]interface{}{
				"index": i,
			})
		}
		ptrs[i] = binary.BigEndian.Uint16(buf[off : off+2])
	}
	return ptrs, nil
}
