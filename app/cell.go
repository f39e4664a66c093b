package main

import "encoding/binary"

// TableLeafCell is a leaf-table-page cell: a rowid and its record.
type TableLeafCell struct {
	RowID   int64
	Payload []byte
}

// TableInteriorCell is an interior-table-page cell: a left child pointer
// and the largest rowid reachable through that subtree.
type TableInteriorCell struct {
	LeftChildPage uint32
	Key           int64
}

// IndexLeafCell is a leaf-index-page cell: an index record whose last
// column is the rowid of the table row it points at.
type IndexLeafCell struct {
	Payload []byte
}

// IndexInteriorCell is an interior-index-page cell: a left child pointer
// and the index record at this node.
type IndexInteriorCell struct {
	LeftChildPage uint32
	Payload       []byte
}

// parseTableLeafCell parses a leaf-table cell starting at offset in buf.
// Overflow pages are not supported: payloads are assumed to fit entirely
// on the page they're recorded on, true of every fixture this engine is
// built against.
func parseTableLeafCell(buf []byte, offset int) (TableLeafCell, error) {
	payloadLen, n1 := readVarint(buf, offset)
	if n1 == 0 {
		return TableLeafCell{}, NewDatabaseError("parse_table_leaf_cell", ErrInvalidVarint, nil)
	}
	rowID, n2 := readVarint(buf, offset+n1)
	if n2 == 0 {
		return TableLeafCell{}, NewDatabaseError("parse_table_leaf_cell", ErrInvalidVarint, nil)
	}
	start := offset + n1 + n2
	end := start + int(payloadLen)
	if end > len(buf) {
		return TableLeafCell{}, NewDatabaseError("parse_table_leaf_cell", ErrMalformedRow, map[string]interface{}{
			"offset": offset,
		})
	}
	return TableLeafCell{RowID: varintAsInt64(rowID), Payload: buf[start:end]}, nil
}

func parseTableInteriorCell(buf []byte, offset int) (TableInteriorCell, error) {
	if offset+4 > len(buf) {
		return TableInteriorCell{}, NewDatabaseError("parse_table_interior_cell", ErrInvalidCellPointer, nil)
	}
	leftChild := binary.BigEndian.Uint32(buf[offset : offset+4])
	key, n := readVarint(buf, offset+4)
	if n == 0 {
		return TableInteriorCell{}, NewDatabaseError("parse_table_interior_cell", ErrInvalidVarint, nil)
	}
	return TableInteriorCell{LeftChildPage: leftChild, Key: varintAsInt64(key)}, nil
}

func parseIndexLeafCell(buf []byte, offset int) (IndexLeafCell, error) {
	payloadLen, n := readVarint(buf, offset)
	if n == 0 {
		return IndexLeafCell{}, NewDatabaseError("parse_index_leaf_cell", ErrInvalidVarint, nil)
	}
	start := offset + n
	end := start + int(payloadLen)
	if end > len(buf) {
		return IndexLeafCell{}, NewDatabaseError("parse_index_leaf_cell", ErrMalformedRow, nil)
	}
	return IndexLeafCell{Payload: buf[start:end]}, nil
}

func parseIndexInteriorCell(buf []byte, offset int) (IndexInteriorCell, error) {
	if offset+4 > len(buf) {
		return IndexInteriorCell{}, NewDatabaseError("parse_index_interior_cell", ErrInvalidCellPointer, nil)
	}
	leftChild := binary.BigEndian.Uint32(buf[offset : offset+4])
	payloadLen, n := readVarint(buf, offset+4)
	if n == 0 {
		return IndexInteriorCell{}, NewDatabaseError("parse_index_interior_cell", ErrInvalidVarint, nil)
	}
	start := offset + 4 + n
	end := start + int(payloadLen)
	if end > len(buf) {
		return IndexInteriorCell{}, NewDatabaseError("parse_index_interior_cell", ErrMalformedRow, nil)
	}
	return IndexInteriorCell{LeftChildPage: leftChild, Payload: buf[start:end]}, nil
}
