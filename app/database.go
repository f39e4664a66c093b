package main

import (
	"os"
	"sync"
)

// Database is the top-level handle opened once per CLI invocation: the
// page reader, the decoded schema catalog, and per-table/per-index
// caches so repeated lookups against the same table in one query don't
// re-walk sqlite_schema.
type Database struct {
	file   *os.File
	pager  *Pager
	Header DatabaseHeader
	schema *SchemaCatalog

	mu      sync.Mutex
	tables  map[string]*Table
	indexes map[string][]*Index

	resources *ResourceManager
}

// OpenDatabase opens path, validates its header, and loads the schema
// catalog. cfg's MaxConcurrency is validated (and clamped) here since
// this is the one place a caller's configuration choice takes effect.
func OpenDatabase(path string, cfg *DatabaseConfig) (*Database, error) {
	if cfg == nil {
		cfg = DefaultDatabaseConfig()
	}
	validateConcurrency(cfg)

	f, err := os.Open(path)
	if err != nil {
		return nil, NewDatabaseError("open_database", ErrIO, map[string]interface{}{"path": path, "cause": err.Error()})
	}

	headerBuf := make([]byte, databaseHeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		f.Close()
		return nil, NewDatabaseError("read_database_header", ErrIO, map[string]interface{}{"cause": err.Error()})
	}
	header, err := parseDatabaseHeader(headerBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	pager := newPager(f, header.PageSize)
	catalog, err := loadSchemaCatalog(pager)
	if err != nil {
		f.Close()
		return nil, err
	}

	rm := NewResourceManager()
	rm.Add(f)

	return &Database{
		file:      f,
		pager:     pager,
		Header:    header,
		schema:    catalog,
		tables:    make(map[string]*Table),
		indexes:   make(map[string][]*Index),
		resources: rm,
	}, nil
}

// Close releases the underlying file handle.
func (db *Database) Close() error {
	return db.resources.Close()
}

// TableNames lists every user table, per sqlite_schema.
func (db *Database) TableNames() []string {
	return db.schema.TableNames()
}

// TableCount returns the number of sqlite_schema rows of type "table",
// which is what .dbinfo reports as "number of tables" — not the raw
// cell count of the schema page, which also includes index rows.
func (db *Database) TableCount() int {
	n := 0
	for _, r := range db.schema.records {
		if r.Type == "table" {
			n++
		}
	}
	return n
}

// Table returns the logical table named name, loading and caching its
// schema on first use.
func (db *Database) Table(name string) (*Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	schema, err := db.schema.FindTable(name)
	if err != nil {
		return nil, err
	}
	t := newTable(db.pager, schema)
	db.tables[name] = t
	return t, nil
}

// IndexesFor returns every index declared on table tableName, loading
// and caching them (and the Table they join back to) on first use.
func (db *Database) IndexesFor(tableName string) ([]*Index, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if idxs, ok := db.indexes[tableName]; ok {
		return idxs, nil
	}

	table, err := db.tableLocked(tableName)
	if err != nil {
		return nil, err
	}

	schemas, err := db.schema.IndexesFor(tableName)
	if err != nil {
		return nil, err
	}

	joinMu := &sync.Mutex{}
	idxs := make([]*Index, 0, len(schemas))
	for _, s := range schemas {
		idxs = append(idxs, newIndex(db.pager, s, table, joinMu))
	}
	db.indexes[tableName] = idxs
	return idxs, nil
}

func (db *Database) tableLocked(name string) (*Table, error) {
	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	schema, err := db.schema.FindTable(name)
	if err != nil {
		return nil, err
	}
	t := newTable(db.pager, schema)
	db.tables[name] = t
	return t, nil
}
