//go:build windows

package capture

import (
	"sync"

	"golang.org/x/sys/windows"
)

// Without DPI awareness GDI reports logical pixels and the grab comes back
// downscaled on high-DPI displays.
var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
	dpiOnce                sync.Once
)

func prepareGrab() {
	dpiOnce.Do(func() {
		if procSetProcessDPIAware.Find() == nil {
			_, _, _ = procSetProcessDPIAware.Call()
		}
	})
}
