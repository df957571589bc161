// Package attach stores image attachments and produces the public URLs
// callers hand to the message dispatcher. Two backends exist: GridFS with
// HMAC-signed expiring download URLs, and S3 with public object URLs.
package attach

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"MarketChat/entity"
	"MarketChat/internal/config"
	"MarketChat/internal/lib/fileurl"
	"MarketChat/internal/lib/sl"
)

// Store uploads one blob and returns a resolvable URL for it. The
// dispatcher never uploads; it only validates the URL produced here.
type Store interface {
	Put(ctx context.Context, filename, contentType string, size int64, reader io.Reader, meta entity.FileMetadata) (*entity.Attachment, error)
}

// Repository is the GridFS surface the mongo-backed store needs.
type Repository interface {
	UploadAttachment(filename string, reader io.Reader, meta entity.FileMetadata) (primitive.ObjectID, int64, error)
}

// NewStore selects the backend configured under storage.backend.
func NewStore(conf *config.Config, repo Repository, logger *slog.Logger) (Store, error) {
	switch conf.Storage.Backend {
	case "s3":
		return newS3Store(conf, logger)
	case "gridfs", "":
		return &gridfsStore{
			repository: repo,
			secret:     conf.Files.Secret,
			ttl:        time.Duration(conf.Files.TTLMin) * time.Minute,
			log:        logger.With(sl.Module("attach-gridfs")),
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

type gridfsStore struct {
	repository Repository
	secret     string
	ttl        time.Duration
	log        *slog.Logger
}

func (s *gridfsStore) Put(_ context.Context, filename, contentType string, size int64, reader io.Reader, meta entity.FileMetadata) (*entity.Attachment, error) {
	if size > entity.MaxAttachmentSize {
		return nil, entity.InvalidInput(entity.FileTooLargeError(filename, size).Error())
	}
	meta.MIMEType = contentType

	fileID, written, err := s.repository.UploadAttachment(filename, io.LimitReader(reader, entity.MaxAttachmentSize+1), meta)
	if err != nil {
		return nil, err
	}
	if written > entity.MaxAttachmentSize {
		return nil, entity.InvalidInput(entity.FileTooLargeError(filename, written).Error())
	}

	s.log.With(
		slog.String("file_id", fileID.Hex()),
		slog.Int64("size", written),
	).Debug("attachment stored")

	return &entity.Attachment{
		FileID:   fileID,
		Filename: filename,
		MIMEType: contentType,
		Size:     written,
		URL:      fileurl.SignURL(fileID.Hex(), s.secret, s.ttl),
	}, nil
}
