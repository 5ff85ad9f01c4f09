package main

import (
	"menubard/cmd"

	// Register the macOS backend.
	_ "menubard/internal/platform/darwin"
)

func main() {
	cmd.Execute()
}
