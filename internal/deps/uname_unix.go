//go:build linux || darwin || freebsd || netbsd || openbsd

package deps

import "golang.org/x/sys/unix"

func unameFields() map[string]string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return fallbackUname()
	}
	return map[string]string{
		"sysname":  unix.ByteSliceToString(u.Sysname[:]),
		"nodename": unix.ByteSliceToString(u.Nodename[:]),
		"release":  unix.ByteSliceToString(u.Release[:]),
		"version":  unix.ByteSliceToString(u.Version[:]),
		"machine":  unix.ByteSliceToString(u.Machine[:]),
	}
}
