package simplemedia

import (
	"io"
	"time"
)

// Entry is one durable metadata record pointing at a stored media object.
// All fields are immutable once the entry is created; there is no edit
// operation.
type Entry struct {
	ID        string    `json:"id"`
	MediaURL  string    `json:"media_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// File is an inbound upload: a filename (used only for its extension),
// a declared content type, and the byte stream itself.
type File struct {
	Name        string
	ContentType string
	Data        io.Reader
}

// UploadRequest carries the multipart fields of an upload call. Primary is
// required; Audio and Caption are optional.
type UploadRequest struct {
	Primary *File
	Audio   *File
	Caption string
}
