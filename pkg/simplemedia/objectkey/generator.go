// Package objectkey generates storage keys for media blobs and per-subject
// entry collections.
package objectkey

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// MediaKey creates a fresh subject-scoped key for a media blob. The
	// filename contributes only its extension.
	MediaKey(subject, filename string) string

	// EntriesKey returns the stable key of a subject's entry collection
	EntriesKey(subject string) string
}

// SubjectScopedGenerator stores media under user_uploads/{subject}/{uuid}{ext}
// and entry collections under entries/{subject}.json.
type SubjectScopedGenerator struct {
	// MediaPrefix overrides the default "user_uploads" media prefix
	MediaPrefix string
}

func NewSubjectScopedGenerator() *SubjectScopedGenerator {
	return &SubjectScopedGenerator{MediaPrefix: "user_uploads"}
}

func (g *SubjectScopedGenerator) MediaKey(subject, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	prefix := g.MediaPrefix
	if prefix == "" {
		prefix = "user_uploads"
	}
	return fmt.Sprintf("%s/%s/%s%s", prefix, sanitizePathComponent(subject), uuid.New(), ext)
}

func (g *SubjectScopedGenerator) EntriesKey(subject string) string {
	return fmt.Sprintf("entries/%s.json", sanitizePathComponent(subject))
}

// sanitizePathComponent replaces characters that are problematic in object
// keys and filesystem paths.
func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(component)
}
