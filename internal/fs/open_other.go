//go:build !linux

package fs

import "os"

func openBeneath(root, rel string) (*os.File, error) {
	return openVerified(root, rel)
}
