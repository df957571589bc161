package file

import (
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"MarketChat/entity"
)

type Core interface {
	DownloadAttachment(fileID primitive.ObjectID) (string, entity.FileMetadata, io.ReadCloser, error)
}
