package attachment

import (
	"context"
	"io"

	"MarketChat/entity"
)

type Core interface {
	UploadAttachment(ctx context.Context, filename, contentType string, size int64, reader io.Reader, meta entity.FileMetadata) (*entity.Attachment, error)
}
