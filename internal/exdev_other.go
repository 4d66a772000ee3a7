//go:build !unix

package internal

import (
	"errors"
	"os"
	"strings"
)

// Windows reports cross-volume renames with its own error code; match on the
// wrapped LinkError text since x/sys constants are platform-specific.
func isCrossDevice(err error) bool {
	var le *os.LinkError
	if !errors.As(err, &le) {
		return false
	}
	msg := strings.ToLower(le.Err.Error())
	return strings.Contains(msg, "not the same device") || strings.Contains(msg, "cross-device")
}
