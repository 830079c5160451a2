// Command kitctl runs administrative tasks against the kit database:
// schema migrations, plan previews, period resets and kit row repair.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
