//go:build linux || freebsd || openbsd || darwin || netbsd || dragonfly

package sysinfo

import "golang.org/x/sys/unix"

func uname() (kernel, release string, err error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", "", err
	}
	return unix.ByteSliceToString(uts.Sysname[:]), unix.ByteSliceToString(uts.Release[:]), nil
}
