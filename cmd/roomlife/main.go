// RoomLife is a deterministic, data-driven life simulation of one tenant in
// a shared building.
//
// Usage:
//
//	roomlife play [--plain] [--script file] [--trace] [--load save]
//	roomlife validate [--verbose]
//	roomlife version
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
