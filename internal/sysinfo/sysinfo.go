// Package sysinfo supplies the OS/kernel fields for the run's SYS
// startup log line. The original Python scenario dispatcher prints
// platform.system()/platform.release(); this reconstructs that line
// from the running kernel's own uname(2), the same build-tag split
// used by runZeroInc-sockstats/pkg/kernel (kernel_unix.go /
// uname_unsupported.go).
package sysinfo

import "runtime"

// Info is the OS/kernel identification reported in the SYS startup log.
type Info struct {
	GOOS    string
	Arch    string
	Kernel  string // e.g. "Linux", "Darwin"; empty if unavailable
	Release string // e.g. "6.8.0-1"; empty if unavailable
}

// Collect gathers the best available OS/kernel identification for the
// current platform.
func Collect() Info {
	info := Info{GOOS: runtime.GOOS, Arch: runtime.GOARCH}
	kernel, release, err := uname()
	if err == nil {
		info.Kernel = kernel
		info.Release = release
	}
	return info
}

// String renders the info the way the SYS log line expects:
// "GOOS-Arch (Kernel Release)" or just "GOOS-Arch" if uname failed.
func (i Info) String() string {
	if i.Kernel == "" {
		return i.GOOS + "-" + i.Arch
	}
	return i.GOOS + "-" + i.Arch + " (" + i.Kernel + " " + i.Release + ")"
}
