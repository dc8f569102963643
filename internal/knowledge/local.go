package knowledge

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed kb/*.md
var embeddedFiles embed.FS

// LocalSource reads topic files from a filesystem.
type LocalSource struct {
	fsys fs.FS
	name string
}

// NewLocalSource reads topics from dir. An empty dir selects the copies
// compiled into the binary.
func NewLocalSource(dir string) (*LocalSource, error) {
	if dir == "" {
		sub, err := fs.Sub(embeddedFiles, "kb")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded knowledge files: %w", err)
		}
		return &LocalSource{fsys: sub, name: "local:embedded"}, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("knowledge directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("knowledge directory %s is not a directory", dir)
	}
	return &LocalSource{fsys: os.DirFS(dir), name: "local:" + dir}, nil
}

// NewFSSource reads topics from an arbitrary filesystem.
func NewFSSource(fsys fs.FS, name string) *LocalSource {
	return &LocalSource{fsys: fsys, name: name}
}

// Name identifies the source in logs.
func (s *LocalSource) Name() string {
	return s.name
}

// Read returns the content of the topic file.
func (s *LocalSource) Read(_ context.Context, topic Topic) (string, error) {
	data, err := fs.ReadFile(s.fsys, topic.Filename())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrNotFound
		}
		return "", &TransportError{Source: s.name, Topic: topic, Cause: err}
	}
	return string(data), nil
}
