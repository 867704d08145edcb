// Package settings persists the user's UI settings (language, theme) as a
// small versioned JSON document in the OS config directory.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CurrentVersion is the newest settings schema this build understands.
const CurrentVersion uint16 = 1

var (
	// ErrUnreadable means the settings file exists but could not be read.
	ErrUnreadable = errors.New("settings file cannot be read")
	// ErrMalformed means the settings file is not a valid settings document.
	ErrMalformed = errors.New("settings file has invalid syntax")
	// ErrUnsupportedVersion means the file was written by a newer openseat.
	ErrUnsupportedVersion = errors.New("settings file is from a newer version")
	// ErrEncode means the in-memory content could not be serialized.
	ErrEncode = errors.New("cannot encode settings")
	// ErrCreateDir means the settings directory could not be created.
	ErrCreateDir = errors.New("cannot create settings directory")
	// ErrWrite means the settings file could not be written. It is the only
	// failure that is expected to be recoverable while the app is running.
	ErrWrite = errors.New("cannot write settings file")
)

// IsFatal reports whether err belongs to a failure class that should stop
// the application at startup rather than be shown to the user.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrWrite)
}

// Content is the persisted settings document.
type Content struct {
	Version  uint16 `json:"version"`
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

// Default returns the document written on first run.
func Default() Content {
	return Content{
		Version:  CurrentVersion,
		Language: "en",
		Theme:    "dark",
	}
}

// Store owns the settings file and a cached copy of its content.
type Store struct {
	path string

	mu      sync.RWMutex
	content Content
}

// Open loads the settings file at path, or creates it with Default content
// if it does not exist yet. Missing parent directories are created.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.Write(Default()); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	content, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	if content.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %s has version %d, this build supports up to %d",
			ErrUnsupportedVersion, path, content.Version, CurrentVersion)
	}

	s.content = content
	return s, nil
}

// decode parses a settings document. Field names are matched exactly and
// each known field may appear once; unknown fields are ignored.
func decode(data []byte) (Content, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return Content{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Content{}, fmt.Errorf("expected an object, got %v", tok)
	}

	var (
		version         *uint16
		language, theme *string
		seen            = make(map[string]bool)
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Content{}, err
		}
		key, _ := tok.(string)

		var dst any
		switch key {
		case "version":
			dst = &version
		case "language":
			dst = &language
		case "theme":
			dst = &theme
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return Content{}, err
			}
			continue
		}

		if seen[key] {
			return Content{}, fmt.Errorf("duplicate field %q", key)
		}
		seen[key] = true
		if err := dec.Decode(dst); err != nil {
			return Content{}, fmt.Errorf("field %q: %w", key, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return Content{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Content{}, errors.New("trailing data after settings object")
	}

	switch {
	case version == nil:
		return Content{}, errors.New("missing field \"version\"")
	case language == nil:
		return Content{}, errors.New("missing field \"language\"")
	case theme == nil:
		return Content{}, errors.New("missing field \"theme\"")
	}

	return Content{
		Version:  *version,
		Language: *language,
		Theme:    *theme,
	}, nil
}

// Path returns the location of the settings file.
func (s *Store) Path() string {
	return s.path
}

// Content returns a copy of the cached settings.
func (s *Store) Content() Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content
}

// Write persists content to disk, replacing the existing file, and updates
// the cached copy. The fields are stored as given. On failure the cached
// copy is left unchanged.
func (s *Store) Write(content Content) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCreateDir, dir, err)
	}

	if err := replaceFile(s.path, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, s.path, err)
	}

	s.content = content
	return nil
}
