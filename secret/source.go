// Package secret resolves sensitive configuration values, such as the store
// password, from pluggable sources.
package secret

import "context"

type (
	Secret = []byte

	Source interface {
		Get(context.Context, string) (Secret, error)
	}
)
