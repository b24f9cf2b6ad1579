package gamedbcommon

import "github.com/pkg/errors"

// ErrNotFound is returned by engines when the requested document does not exist
var ErrNotFound = errors.New("gamedb: not found")

// IsNotFound reports whether the error means the document does not exist
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}
