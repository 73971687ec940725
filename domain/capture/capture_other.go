//go:build !windows

package capture

func prepareGrab() {}
