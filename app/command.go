package main

import (
	"fmt"
	"io"
)

// runCommand dispatches a CLI invocation's second argument. Dot-prefixed
// commands (.dbinfo, .tables) are recognized by exact name; anything
// else falls through to the SQL frontend. This rules out a
// name-dispatch library like mitchellh/cli, which expects every
// accepted input to match a registered command name up front.
func runCommand(db *Database, command string, out io.Writer) error {
	switch command {
	case ".dbinfo":
		return dbinfoCommand(db, out)
	case ".tables":
		return tablesCommand(db, out)
	default:
		return queryCommand(db, command, out)
	}
}

func dbinfoCommand(db *Database, out io.Writer) error {
	fmt.Fprintf(out, "database page size: %v\n", db.Header.PageSize)
	fmt.Fprintf(out, "number of tables: %v\n", db.TableCount())
	return nil
}

func tablesCommand(db *Database, out io.Writer) error {
	for _, name := range db.TableNames() {
		fmt.Fprintln(out, name)
	}
	return nil
}

func queryCommand(db *Database, sql string, out io.Writer) error {
	query, err := ParseSelect(sql)
	if err != nil {
		return err
	}

	result, err := ExecuteSelect(db, query)
	if err != nil {
		return err
	}

	formatter := NewRowFormatter(out)
	return formatter.WriteRows(result.Rows, result.OutputColumns)
}
