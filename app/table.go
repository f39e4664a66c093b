package main

// tableFrame tracks DFS progress through one page of a table B-tree.
type tableFrame struct {
	pageNum   uint32
	buf       []byte
	header    PageHeader
	cellPtrs  []uint16
	cellIdx   int  // next cell to visit (leaf: to emit; interior: to descend)
	rightDone bool // interior pages only: has the right-most child been pushed
}

// tableIterator performs a lazy, depth-first, left-to-right walk of a
// table B-tree, yielding (rowid, record) pairs in ascending rowid order.
// Only the page currently being visited at each stack level is held in
// memory; there is no page cache beyond that.
type tableIterator struct {
	pager *Pager
	stack []*tableFrame
}

func newTableIterator(pager *Pager, rootPage uint32) (*tableIterator, error) {
	it := &tableIterator{pager: pager}
	if err := it.push(rootPage); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *tableIterator) push(pageNum uint32) error {
	buf, err := it.pager.ReadPage(pageNum)
	if err != nil {
		return err
	}
	headerOffset := pageHeaderOffset(pageNum)
	header, err := parsePageHeader(buf[headerOffset:])
	if err != nil {
		return err
	}
	if !header.Type.IsTable() {
		return NewDatabaseError("table_iterator", ErrBadPageType, map[string]interface{}{"page": pageNum})
	}
	ptrs, err := cellPointers(buf, header, headerOffset)
	if err != nil {
		return err
	}
	it.stack = append(it.stack, &tableFrame{pageNum: pageNum, buf: buf, header: header, cellPtrs: ptrs})
	return nil
}

// Next returns the next row in rowid order, or ok=false once the table is
// exhausted.
func (it *tableIterator) Next() (*Row, bool, error) {
	for {
		if len(it.stack) == 0 {
			return nil, false, nil
		}
		top := it.stack[len(it.stack)-1]

		if top.header.Type.IsLeaf() {
			if top.cellIdx >= len(top.cellPtrs) {
				it.stack = it.stack[:len(it.stack)-1]
				continue
			}
			cell, err := parseTableLeafCell(top.buf, int(top.cellPtrs[top.cellIdx]))
			top.cellIdx++
			if err != nil {
				return nil, false, err
			}
			rec, err := parseRecord(cell.Payload)
			if err != nil {
				return nil, false, err
			}
			return &Row{RowID: cell.RowID, Values: rec.Values}, true, nil
		}

		// Interior page.
		if top.cellIdx < len(top.cellPtrs) {
			cell, err := parseTableInteriorCell(top.buf, int(top.cellPtrs[top.cellIdx]))
			top.cellIdx++
			if err != nil {
				return nil, false, err
			}
			if err := it.push(cell.LeftChildPage); err != nil {
				return nil, false, err
			}
			continue
		}
		if !top.rightDone {
			top.rightDone = true
			if err := it.push(top.header.RightMostPointer); err != nil {
				return nil, false, err
			}
			continue
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
}

// tableGet performs a point lookup by rowid, exploiting the interior-cell
// invariant that a cell's key is the maximum rowid reachable through its
// left subtree: descend the first child whose key is >= rowID, or the
// right-most child once every cell's key has been passed.
func tableGet(pager *Pager, rootPage uint32, rowID int64) (*Row, bool, error) {
	pageNum := rootPage
	for {
		buf, err := pager.ReadPage(pageNum)
		if err != nil {
			return nil, false, err
		}
		headerOffset := pageHeaderOffset(pageNum)
		header, err := parsePageHeader(buf[headerOffset:])
		if err != nil {
			return nil, false, err
		}
		ptrs, err := cellPointers(buf, header, headerOffset)
		if err != nil {
			return nil, false, err
		}

		if header.Type.IsLeaf() {
			for _, ptr := range ptrs {
				cell, err := parseTableLeafCell(buf, int(ptr))
				if err != nil {
					return nil, false, err
				}
				if cell.RowID == rowID {
					rec, err := parseRecord(cell.Payload)
					if err != nil {
						return nil, false, err
					}
					return &Row{RowID: cell.RowID, Values: rec.Values}, true, nil
				}
			}
			return nil, false, nil
		}

		next := header.RightMostPointer
		found := false
		for _, ptr := range ptrs {
			cell, err := parseTableInteriorCell(buf, int(ptr))
			if err != nil {
				return nil, false, err
			}
			if rowID <= cell.Key {
				next = cell.LeftChildPage
				found = true
				break
			}
		}
		_ = found
		pageNum = next
	}
}

// Table is the logical view of a table: its schema plus the ability to
// scan or point-look-up rows, with the rowid-as-primary-key-alias rule
// applied to INTEGER PRIMARY KEY columns.
type Table struct {
	pager  *Pager
	Schema *TableSchema
}

func newTable(pager *Pager, schema *TableSchema) *Table {
	return &Table{pager: pager, Schema: schema}
}

// applyRowidAlias rewrites column RowidPKAt, if any, to the row's actual
// rowid: SQLite stores NULL in that column's record slot and the true
// value lives only in the cell's rowid.
func (t *Table) applyRowidAlias(row *Row) {
	if t.Schema.RowidPKAt < 0 || t.Schema.RowidPKAt >= len(row.Values) {
		return
	}
	row.Values[t.Schema.RowidPKAt] = IntegerValue(row.RowID)
}

// Scan returns a function that yields successive rows until exhausted.
func (t *Table) Scan() (func() (*Row, bool, error), error) {
	it, err := newTableIterator(t.pager, uint32(t.Schema.RootPage))
	if err != nil {
		return nil, err
	}
	return func() (*Row, bool, error) {
		row, ok, err := it.Next()
		if err != nil || !ok {
			return nil, ok, err
		}
		t.applyRowidAlias(row)
		return row, true, nil
	}, nil
}

// GetByRowID performs a point lookup by rowid.
func (t *Table) GetByRowID(rowID int64) (*Row, bool, error) {
	row, ok, err := tableGet(t.pager, uint32(t.Schema.RootPage), rowID)
	if err != nil || !ok {
		return nil, ok, err
	}
	t.applyRowidAlias(row)
	return row, true, nil
}

// ColumnIndex resolves a column name to its position in Schema.Columns.
func (t *Table) ColumnIndex(name string) (int, error) {
	for _, c := range t.Schema.Columns {
		if c.Name == name {
			return c.Index, nil
		}
	}
	return -1, NewDatabaseError("resolve_column", ErrUnknownColumn, map[string]interface{}{
		"column": name, "table": t.Schema.Name,
	})
}
