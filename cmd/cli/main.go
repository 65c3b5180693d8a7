// lamptest - Standard Lamp Test Extractor
//
// lamptest reads standard lamp test records from spectrophotometer logs and
// turns them into a normalized, time-sorted table.
package main

import (
	"os"

	"github.com/ccollicutt/lamptest/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
