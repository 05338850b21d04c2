package models

import "strings"

// ItemType is the kind of generated result stored in a user's history.
type ItemType string

const (
	ItemText   ItemType = "Text"
	ItemImage  ItemType = "Image"
	ItemCanvas ItemType = "Canvas"
	ItemVideo  ItemType = "Video"
	ItemAudio  ItemType = "Audio"
)

// ManualUploadPrefix marks history items the user uploaded instead of generating.
// For those items Prompt holds the original file name.
const ManualUploadPrefix = "manual-"

// Blob is binary media with its MIME type. An empty MIMEType is sniffed at encode time.
type Blob struct {
	Data     []byte
	MIMEType string
}

// Media is either text or a [Blob]; Blob takes precedence when set.
type Media struct {
	Text string
	Blob *Blob
}

// TextMedia wraps a text result.
func TextMedia(s string) Media { return Media{Text: s} }

// BlobMedia wraps a binary result.
func BlobMedia(data []byte, mimeType string) Media {
	return Media{Blob: &Blob{Data: data, MIMEType: mimeType}}
}

// IsBlob reports whether the media is binary.
func (m Media) IsBlob() bool { return m.Blob != nil }

// HistoryItem is a generated (or manually uploaded) result selected for a social post.
type HistoryItem struct {
	ID     string
	Type   ItemType
	Prompt string
	Result Media
}

// IsManualUpload reports whether the item came from a manual upload.
func (h HistoryItem) IsManualUpload() bool {
	return strings.HasPrefix(h.ID, ManualUploadPrefix)
}
