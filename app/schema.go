package main

import (
	"strings"

	"github.com/xwb1989/sqlparser"
)

// SchemaRecord is one row of sqlite_schema: a catalog entry for a table
// or index.
type SchemaRecord struct {
	Type     string // "table" or "index"
	Name     string
	TblName  string
	RootPage int64
	SQL      string
}

// TableSchema is a resolved table: its rootpage and declared columns, in
// declaration order.
type TableSchema struct {
	Name      string
	RootPage  int64
	Columns   []*Column
	RowidPKAt int // index of the INTEGER PRIMARY KEY alias column, or -1
}

// IndexSchema is a resolved index: its rootpage and the table columns it
// covers, in the order the CREATE INDEX statement lists them.
type IndexSchema struct {
	Name        string
	TableName   string
	RootPage    int64
	ColumnNames []string
}

// SchemaCatalog holds every sqlite_schema row, decoded once per database
// open and resolved into TableSchema/IndexSchema on demand.
type SchemaCatalog struct {
	records []SchemaRecord
}

// loadSchemaCatalog reads every row of the sqlite_schema table, which
// always roots at page 1, via a plain table iterator over that page.
func loadSchemaCatalog(pager *Pager) (*SchemaCatalog, error) {
	it, err := newTableIterator(pager, 1)
	if err != nil {
		return nil, err
	}

	var records []SchemaRecord
	for {
		row, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if len(row.Values) < 5 {
			return nil, NewDatabaseError("load_schema", ErrMalformedRow, map[string]interface{}{
				"columns": len(row.Values),
			})
		}
		rec := SchemaRecord{
			Type:     row.Values[0].String(),
			Name:     row.Values[1].String(),
			TblName:  row.Values[2].String(),
			RootPage: row.Values[3].Int,
			SQL:      row.Values[4].String(),
		}
		records = append(records, rec)
	}

	return &SchemaCatalog{records: records}, nil
}

// TableNames returns every user table name (sqlite_schema's own
// bookkeeping tables are never listed).
func (c *SchemaCatalog) TableNames() []string {
	var names []string
	for _, r := range c.records {
		if r.Type == "table" && !strings.HasPrefix(r.Name, "sqlite_") {
			names = append(names, r.Name)
		}
	}
	return names
}

// FindTable resolves a table by name, recovering its column list from
// its CREATE TABLE statement.
func (c *SchemaCatalog) FindTable(name string) (*TableSchema, error) {
	for _, r := range c.records {
		if r.Type == "table" && r.Name == name {
			cols, rowidPK, err := parseCreateTableColumns(r.SQL)
			if err != nil {
				return nil, err
			}
			return &TableSchema{Name: r.Name, RootPage: r.RootPage, Columns: cols, RowidPKAt: rowidPK}, nil
		}
	}
	return nil, NewDatabaseError("find_table", ErrTableNotFound, map[string]interface{}{"name": name})
}

// IndexesFor returns every index declared against table tableName.
func (c *SchemaCatalog) IndexesFor(tableName string) ([]*IndexSchema, error) {
	var result []*IndexSchema
	for _, r := range c.records {
		if r.Type == "index" && r.TblName == tableName {
			cols, err := parseCreateIndexColumns(r.SQL)
			if err != nil {
				return nil, err
			}
			result = append(result, &IndexSchema{
				Name: r.Name, TableName: r.TblName, RootPage: r.RootPage, ColumnNames: cols,
			})
		}
	}
	return result, nil
}

// columnDef is one column definition recovered from CREATE TABLE DDL:
// its name, always recovered via the tokenizer, and whether its own
// definition tokens declare it an INTEGER PRIMARY KEY alias column.
// isRowidPK is derived the same schema-independent way as the name —
// a pure tokenizer walk — since the rowid-alias rule (storage stores
// NULL in the column's record slot, the real value lives only in the
// cell's rowid) must hold regardless of whether sqlparser can parse
// the statement.
type columnDef struct {
	name      string
	isRowidPK bool
}

// parseCreateTableColumns recovers column names and the rowid-alias
// column, always, via a tolerant tokenizer walk of the DDL that does not
// depend on standard grammar, and, best effort, column types (via
// sqlparser, which can parse the CREATE TABLE grammar once quoted
// identifiers are stripped). Type recovery is supplementary: a type that
// sqlparser can't resolve is left as "" rather than failing the whole
// schema load, since nothing in the query path depends on declared
// types or on sqlparser succeeding at all.
func parseCreateTableColumns(sql string) ([]*Column, int, error) {
	defs, err := parseColumnDefs(sql)
	if err != nil {
		return nil, -1, err
	}

	types := recoverColumnTypes(sql, len(defs))
	rowidPKAt := -1

	cols := make([]*Column, len(defs))
	for i, d := range defs {
		typ := ""
		if i < len(types) {
			typ = types[i]
		}
		if d.isRowidPK {
			rowidPKAt = i
		}
		cols[i] = &Column{Name: d.name, Type: typ, Index: i, IsRowidPK: d.isRowidPK}
	}
	return cols, rowidPKAt, nil
}

// tokenizeColumnNames walks past "CREATE TABLE <name> (" and then reads
// one identifier per comma-separated column definition, stopping at the
// matching close paren. Table-level constraints (PRIMARY KEY(...), a
// bare "CHECK" etc.) are skipped: SQLite convention names columns first
// in nearly every schema this engine is expected to read, and the
// operations in scope never need constraint definitions.
func tokenizeColumnNames(sql string) ([]string, error) {
	defs, err := parseColumnDefs(sql)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.name
	}
	return names, nil
}

// parseColumnDefs walks past "CREATE TABLE <name> (" and splits the rest
// into one comma-separated definition per column (stopping at the
// matching close paren), skipping table-level constraints, and checks
// each definition's own tokens for an inline INTEGER PRIMARY KEY clause.
func parseColumnDefs(sql string) ([]columnDef, error) {
	t := NewTokenizer(sql)

	for {
		tok, ok := t.Next()
		if !ok {
			return nil, NewDatabaseError("parse_create_table", ErrParse, map[string]interface{}{"sql": sql})
		}
		if tok.Kind == TokenPunctuation && tok.Punct == '(' {
			break
		}
	}

	var defs []columnDef
	var cur []Token
	depth := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		head := cur[0]
		if (head.Kind == TokenIdentifier || head.Kind == TokenQuotedString) && !isTableConstraintKeyword(head.Text) {
			defs = append(defs, columnDef{name: head.Text, isRowidPK: defIsRowidPK(cur)})
		}
		cur = nil
	}

	for {
		tok, ok := t.Next()
		if !ok {
			break
		}
		if tok.Kind == TokenPunctuation {
			switch tok.Punct {
			case '(':
				depth++
			case ')':
				if depth == 0 {
					flush()
					return defs, nil
				}
				depth--
			case ',':
				if depth == 0 {
					flush()
					continue
				}
			}
		}
		cur = append(cur, tok)
	}
	flush()
	return defs, nil
}

// defIsRowidPK reports whether a column definition's own tokens declare
// an INTEGER PRIMARY KEY alias column: the INTEGER type keyword plus a
// PRIMARY KEY clause, independent of AUTOINCREMENT (which only affects
// rowid allocation, not whether the column aliases it).
func defIsRowidPK(tokens []Token) bool {
	hasInteger := false
	hasPrimaryKey := false
	for i, tok := range tokens {
		if tok.Kind != TokenIdentifier {
			continue
		}
		switch strings.ToUpper(tok.Text) {
		case "INTEGER":
			hasInteger = true
		case "PRIMARY":
			if i+1 < len(tokens) && tokens[i+1].Kind == TokenIdentifier && strings.EqualFold(tokens[i+1].Text, "KEY") {
				hasPrimaryKey = true
			}
		}
	}
	return hasInteger && hasPrimaryKey
}

func isTableConstraintKeyword(word string) bool {
	switch strings.ToUpper(word) {
	case "PRIMARY", "UNIQUE", "CHECK", "FOREIGN", "CONSTRAINT":
		return true
	default:
		return false
	}
}

// recoverColumnTypes asks sqlparser to parse the DDL after normalizing
// SQLite-only syntax it doesn't accept, purely to fill Column.Type with
// the declared column types; nothing in the query path reads them.
// sqlparser failure (a column-name
// tokenizeColumnNames handled but sqlparser's stricter grammar rejects,
// e.g. an unquoted reserved word) degrades to untyped columns rather
// than aborting the schema load: sqlparser's output is never consulted
// for the rowid-alias decision, which parseColumnDefs derives on its
// own via the tokenizer.
func recoverColumnTypes(sql string, wantCount int) []string {
	normalized := normalizeForSQLParser(sql)
	stmt, err := sqlparser.Parse(normalized)
	if err != nil {
		return nil
	}
	ddl, ok := stmt.(*sqlparser.DDL)
	if !ok || ddl.TableSpec == nil {
		return nil
	}

	out := make([]string, len(ddl.TableSpec.Columns))
	for i, col := range ddl.TableSpec.Columns {
		out[i] = col.Type.Type
	}
	if len(out) != wantCount {
		return nil
	}
	return out
}

func normalizeForSQLParser(sql string) string {
	normalized := strings.ReplaceAll(sql, `"`, "")
	normalized = strings.ReplaceAll(normalized, "[", "")
	normalized = strings.ReplaceAll(normalized, "]", "")
	return normalized
}

// parseCreateIndexColumns recovers the indexed column list from
// "CREATE INDEX <name> ON <table> (<cols>)", again via the tokenizer so
// it works regardless of whether sqlparser accepts the statement.
func parseCreateIndexColumns(sql string) ([]string, error) {
	t := NewTokenizer(sql)

	for {
		tok, ok := t.Next()
		if !ok {
			return nil, NewDatabaseError("parse_create_index", ErrParse, map[string]interface{}{"sql": sql})
		}
		if tok.Kind == TokenPunctuation && tok.Punct == '(' {
			break
		}
	}

	var names []string
	for {
		tok, ok := t.Next()
		if !ok {
			break
		}
		switch tok.Kind {
		case TokenPunctuation:
			if tok.Punct == ')' {
				return names, nil
			}
		case TokenIdentifier, TokenQuotedString:
			names = append(names, tok.Text)
		}
	}
	return names, nil
}
