package main

// QueryResult is a fully executed, projected query, ready for
// formatting: OutputColumns describes each result column (synthesized
// for COUNT(*)), Rows holds the already-projected values.
type QueryResult struct {
	OutputColumns []*Column
	Rows          []*Row
}

// ExecuteSelect validates q against db's schema, plans whether an index
// can serve the WHERE clause, runs the scan, and applies projection.
func ExecuteSelect(db *Database, q *SelectQuery) (*QueryResult, error) {
	table, err := db.Table(q.Table)
	if err != nil {
		return nil, err
	}

	if err := validateWhereColumns(table, q.Where); err != nil {
		return nil, err
	}
	if !q.Star && !q.CountStar {
		for _, c := range q.Columns {
			if _, err := table.ColumnIndex(c); err != nil {
				return nil, err
			}
		}
	}

	rows, err := planAndScan(db, table, q.Where)
	if err != nil {
		return nil, err
	}

	return project(table, q, rows)
}

func validateWhereColumns(table *Table, conds []WhereCond) error {
	for _, c := range conds {
		if _, err := table.ColumnIndex(c.Column); err != nil {
			return err
		}
	}
	return nil
}

// planAndScan picks the index (if any) whose declared columns form the
// longest matchable prefix of the WHERE clause, splits the clause into
// index keys and row-level residuals, and returns the matching rows.
func planAndScan(db *Database, table *Table, where []WhereCond) ([]*Row, error) {
	byCol := make(map[string]string, len(where))
	for _, c := range where {
		byCol[c.Column] = c.Literal
	}

	indexes, err := db.IndexesFor(table.Schema.Name)
	if err != nil {
		return nil, err
	}

	var best *Index
	var bestValues []string
	for _, ix := range indexes {
		values, ok := ix.MatchablePrefixLen(byCol)
		if !ok {
			continue
		}
		if len(values) > len(bestValues) {
			best = ix
			bestValues = values
		}
	}

	var candidates []*Row
	var residuals []WhereCond

	if best != nil {
		candidates, err = best.Lookup(bestValues)
		if err != nil {
			return nil, err
		}
		keyCols := make(map[string]bool, len(bestValues))
		for i := 0; i < len(bestValues); i++ {
			keyCols[best.Schema.ColumnNames[i]] = true
		}
		for _, c := range where {
			if !keyCols[c.Column] {
				residuals = append(residuals, c)
			}
		}
	} else {
		next, err := table.Scan()
		if err != nil {
			return nil, err
		}
		for {
			row, ok, err := next()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			candidates = append(candidates, row)
		}
		residuals = where
	}

	if len(residuals) == 0 {
		return candidates, nil
	}

	filtered := make([]*Row, 0, len(candidates))
	for _, row := range candidates {
		if rowMatches(table, row, residuals) {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func rowMatches(table *Table, row *Row, conds []WhereCond) bool {
	for _, c := range conds {
		val, err := row.GetByName(c.Column, table.Schema.Columns)
		if err != nil {
			return false
		}
		if !val.EqualToLiteral(c.Literal) {
			return false
		}
	}
	return true
}

// project applies the SELECT projection to already-filtered rows: `*`
// expands to every table column, named columns copy the resolved
// values, and COUNT(*) collapses every row into a single count.
func project(table *Table, q *SelectQuery, rows []*Row) (*QueryResult, error) {
	if q.CountStar {
		countCol := &Column{Name: "COUNT(*)", Index: 0}
		return &QueryResult{
			OutputColumns: []*Column{countCol},
			Rows:          []*Row{{Values: []Value{IntegerValue(int64(len(rows)))}}},
		}, nil
	}

	if q.Star {
		out := make([]*Row, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return &QueryResult{OutputColumns: table.Schema.Columns, Rows: out}, nil
	}

	outCols := make([]*Column, len(q.Columns))
	idxs := make([]int, len(q.Columns))
	for i, name := range q.Columns {
		idx, err := table.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		idxs[i] = idx
		outCols[i] = &Column{Name: name, Index: i}
	}

	out := make([]*Row, len(rows))
	for i, r := range rows {
		values := make([]Value, len(idxs))
		for j, idx := range idxs {
			v, err := r.Get(idx)
			if err != nil {
				return nil, err
			}
			values[j] = v
		}
		out[i] = &Row{RowID: r.RowID, Values: values}
	}
	return &QueryResult{OutputColumns: outCols, Rows: out}, nil
}
