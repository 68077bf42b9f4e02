package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"sprint-mcp/cmd/sprint-mcp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
