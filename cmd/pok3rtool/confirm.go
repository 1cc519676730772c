package main

import (
	"bufio"
	"fmt"
	"os"
)

// confirm reproduces main.cpp's warning(): destructive commands print a
// risk notice and require the literal string "OK" on stdin before
// proceeding, unless the caller passed --ok.
func confirm(skip bool) error {
	if skip {
		return nil
	}
	fmt.Fprintln(os.Stderr, "WARNING: THIS TOOL IS RELATIVELY UNTESTED, AND HAS A VERY REAL")
	fmt.Fprintln(os.Stderr, "RISK OF CORRUPTING YOUR KEYBOARD, MAKING IT UNUSABLE WITHOUT")
	fmt.Fprintln(os.Stderr, "EXPENSIVE DEVELOPMENT TOOLS. PROCEED AT YOUR OWN RISK.")
	fmt.Fprint(os.Stderr, "Type \"OK\" to continue: ")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	if scanner.Text() != "OK" {
		return fmt.Errorf("pok3rtool: user declined to proceed")
	}
	return nil
}
