// Command rlmemory drives the grid environment through a memory controller
// with a random policy and reports the reward of every episode.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
