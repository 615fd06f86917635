package repository

import "os"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFileMode sets the permission bits of written artifact files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithDirMode sets the permission bits of created version directories.
func WithDirMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.dirMode = mode
		}
	}
}
