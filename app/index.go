package main

import "sync"

// indexFrame tracks in-order DFS progress through one page of an index
// B-tree. Unlike a table B-tree, every level of an index B-tree carries
// full key records, so an interior page's own cells are emitted between
// visits to their left and right subtrees.
type indexFrame struct {
	pageNum   uint32
	buf       []byte
	header    PageHeader
	cellPtrs  []uint16
	cellIdx   int
	descended bool
	rightDone bool
}

// indexIterator performs a lazy in-order walk of an index B-tree,
// yielding each entry's decoded key columns plus the trailing rowid
// column SQLite appends to every index record.
type indexIterator struct {
	pager *Pager
	stack []*indexFrame
}

func newIndexIterator(pager *Pager, rootPage uint32) (*indexIterator, error) {
	it := &indexIterator{pager: pager}
	if err := it.push(rootPage); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *indexIterator) push(pageNum uint32) error {
	buf, err := it.pager.ReadPage(pageNum)
	if err != nil {
		return err
	}
	headerOffset := pageHeaderOffset(pageNum)
	header, err := parsePageHeader(buf[headerOffset:])
	if err != nil {
		return err
	}
	if !header.Type.IsIndex() {
		return NewDatabaseError("index_iterator", ErrBadPageType, map[string]interface{}{"page": pageNum})
	}
	ptrs, err := cellPointers(buf, header, headerOffset)
	if err != nil {
		return err
	}
	it.stack = append(it.stack, &indexFrame{pageNum: pageNum, buf: buf, header: header, cellPtrs: ptrs})
	return nil
}

// Next returns the next index record in ascending key order.
func (it *indexIterator) Next() (*Record, bool, error) {
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
			cell, err := parseIndexLeafCell(top.buf, int(top.cellPtrs[top.cellIdx]))
			top.cellIdx++
			if err != nil {
				return nil, false, err
			}
			rec, err := parseRecord(cell.Payload)
			if err != nil {
				return nil, false, err
			}
			return &rec, true, nil
		}

		if top.cellIdx >= len(top.cellPtrs) {
			if !top.rightDone {
				top.rightDone = true
				if err := it.push(top.header.RightMostPointer); err != nil {
					return nil, false, err
				}
				continue
			}
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		if !top.descended {
			top.descended = true
			cell, err := parseIndexInteriorCell(top.buf, int(top.cellPtrs[top.cellIdx]))
			if err != nil {
				return nil, false, err
			}
			if err := it.push(cell.LeftChildPage); err != nil {
				return nil, false, err
			}
			continue
		}

		cell, err := parseIndexInteriorCell(top.buf, int(top.cellPtrs[top.cellIdx]))
		top.cellIdx++
		top.descended = false
		if err != nil {
			return nil, false, err
		}
		rec, err := parseRecord(cell.Payload)
		if err != nil {
			return nil, false, err
		}
		return &rec, true, nil
	}
}

// Index is the logical view of an index: its schema plus the ability to
// look up matching table rows by equality on its leading columns.
//
// The index iterator and the table iterator it joins against both read
// through the same Pager. The spec models this as cyclic ownership
// between an index and the table it accelerates; here that's realized
// as a shared *Table pointer guarded by a mutex, since only one of the
// two iterators is ever stepping through a page read at a time.
type Index struct {
	pager  *Pager
	Schema *IndexSchema
	table  *Table
	mu     *sync.Mutex
}

func newIndex(pager *Pager, schema *IndexSchema, table *Table, mu *sync.Mutex) *Index {
	return &Index{pager: pager, Schema: schema, table: table, mu: mu}
}

// Lookup returns every row of the indexed table whose values at the
// index's leading len(matchValues) columns equal matchValues, by string
// form, per the engine's equality-comparison contract. The index B-tree
// is scanned in full and filtered rather than descended with key-range
// pruning: doing so still avoids decoding every table column for rows
// that don't match, at the cost of a full index-leaf pass instead of a
// logarithmic one.
func (ix *Index) Lookup(matchValues []string) ([]*Row, error) {
	it, err := newIndexIterator(ix.pager, uint32(ix.Schema.RootPage))
	if err != nil {
		return nil, err
	}

	var rows []*Row
	for {
		rec, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if len(rec.Values) < len(matchValues)+1 {
			return nil, NewDatabaseError("index_lookup", ErrMalformedRow, nil)
		}
		if !indexKeyMatches(rec, matchValues) {
			continue
		}
		rowID := rec.Values[len(rec.Values)-1].Int

		ix.mu.Lock()
		row, found, err := ix.table.GetByRowID(rowID)
		ix.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if found {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func indexKeyMatches(rec *Record, matchValues []string) bool {
	for i, want := range matchValues {
		if rec.Values[i].String() != want {
			return false
		}
	}
	return true
}

// MatchablePrefixLen returns the WHERE literals for the longest prefix of
// the index's own column order that whereCols covers, in index column
// order, and whether that prefix is non-empty. The prefix length is
// len(values).
func (ix *Index) MatchablePrefixLen(whereCols map[string]string) (values []string, ok bool) {
	for _, col := range ix.Schema.ColumnNames {
		v, present := whereCols[col]
		if !present {
			break
		}
		values = append(values, v)
	}
	return values, len(values) > 0
}
