// Command modconvert converts legacy Cortex Command mods for the Community
// Project. See "modconvert --help".
package main

import (
	"os"

	"github.com/cortexmods/modconvert/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
