// Command solarcalc runs the sizing and financial estimator from a terminal.
//
// Usage:
//
//	solarcalc size --appliance fan:75:4:10 --appliance fridge:150:1:24 [--monthly-units 300] [--panel 540]
//	solarcalc quick --bill 3000
//	solarcalc project --bill 3000 --price 185000 --savings 4500
//	solarcalc emi --principal 185000 --rate 10.5 --months 60
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
