package main

import (
	"fmt"
	"os"

	"caltodo/internal/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}
