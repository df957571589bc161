package core

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"MarketChat/entity"
)

func (c *Core) UploadAttachment(ctx context.Context, filename, contentType string, size int64, reader io.Reader, meta entity.FileMetadata) (*entity.Attachment, error) {
	return c.store.Put(ctx, filename, contentType, size, reader, meta)
}

func (c *Core) DownloadAttachment(fileID primitive.ObjectID) (string, entity.FileMetadata, io.ReadCloser, error) {
	return c.files.DownloadAttachment(fileID)
}
