// Command cipher is the terminal client for the Cipher council and debate
// backend.
package main

import (
	"os"

	"github.com/0fflineDocs/Cipher/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
