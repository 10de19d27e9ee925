// Command bookctl generates, exports and migrates service book snapshots
// outside the HTTP API.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
