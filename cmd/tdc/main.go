// Command tdc inspects, packs, and unpacks tagged data containers.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/tdc/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
