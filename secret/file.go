package secret

import (
	"bytes"
	"context"
	"os"
)

// FileSource reads a secret from a file path, as mounted by container
// secret volumes. A trailing newline is stripped.
type FileSource struct{}

func NewFileSource() *FileSource { return &FileSource{} }

var _ Source = (*FileSource)(nil)

func (s *FileSource) Get(_ context.Context, name string) (Secret, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	return bytes.TrimRight(b, "\n"), nil
}
