package main

import (
	"fmt"
	"os"
)

// Usage: your_program.sh sample.db .dbinfo
func main() {
	if err := runProgram(os.Args[1:], os.Stdout); err != nil {
		logger().WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// runProgram implements the CLI's single entry point, separated from
// main so tests can capture its stdout without touching os.Exit.
func runProgram(args []string, stdout *os.File) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: <database file> <command>", ErrArgument)
	}

	databaseFilePath := args[0]
	command := args[1]

	db, err := OpenDatabase(databaseFilePath, DefaultDatabaseConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	return runCommand(db, command, stdout)
}
