//go:build windows

package main

import "os"

// Windows only delivers os.Interrupt to console programs.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
