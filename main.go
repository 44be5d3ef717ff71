// The main package for the bookmarksd executable.
package main

import (
	"github.com/blakewatson/bookmarks/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
