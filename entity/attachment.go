package entity

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxAttachmentSize is the maximum allowed image attachment size (5 MB).
const MaxAttachmentSize = 5 << 20

// ErrFileTooLarge is returned when an uploaded attachment exceeds MaxAttachmentSize.
var ErrFileTooLarge = errors.New("file too large")

// FileTooLargeError wraps ErrFileTooLarge with details about the offending file.
func FileTooLargeError(filename string, size int64) error {
	return fmt.Errorf("%w: %q is %d bytes, limit is %d MB", ErrFileTooLarge, filename, size, MaxAttachmentSize>>20)
}

// Attachment describes an uploaded image blob. The URL is computed at
// upload time by the attachment store and is the value callers pass to the
// message dispatcher as image_url.
type Attachment struct {
	FileID   primitive.ObjectID `json:"file_id" bson:"file_id"`
	Filename string             `json:"filename" bson:"filename"`
	MIMEType string             `json:"mime_type" bson:"mime_type"`
	Size     int64              `json:"size" bson:"size"`
	URL      string             `json:"url,omitempty" bson:"-"`
}

// FileMetadata holds GridFS metadata for an uploaded attachment.
type FileMetadata struct {
	MIMEType       string `bson:"mime_type"`
	UploaderID     string `bson:"uploader_id"`
	ConversationID string `bson:"conversation_id,omitempty"`
}
