//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package deps

func unameFields() map[string]string {
	return fallbackUname()
}
