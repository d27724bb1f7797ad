// Command orbits runs the satellite orbit simulation and serves its frames to
// renderers.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
