package attach

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"MarketChat/entity"
	"MarketChat/internal/config"
	"MarketChat/internal/lib/sl"
)

type s3Store struct {
	client *s3.Client
	bucket string
	region string
	log    *slog.Logger
}

func newS3Store(conf *config.Config, logger *slog.Logger) (*s3Store, error) {
	if conf.Storage.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(conf.Storage.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.Storage.AccessKey, conf.Storage.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &s3Store{
		client: s3.NewFromConfig(cfg),
		bucket: conf.Storage.Bucket,
		region: conf.Storage.Region,
		log:    logger.With(sl.Module("attach-s3")),
	}, nil
}

func (s *s3Store) Put(ctx context.Context, filename, contentType string, size int64, reader io.Reader, meta entity.FileMetadata) (*entity.Attachment, error) {
	if size > entity.MaxAttachmentSize {
		return nil, entity.InvalidInput(entity.FileTooLargeError(filename, size).Error())
	}

	key := fmt.Sprintf("attachments/%s/%s%s", meta.UploaderID, uuid.NewString(), filepath.Ext(filename))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        reader,
		ACL:         "public-read",
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, entity.Unavailable(fmt.Errorf("s3 put object: %w", err))
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)

	s.log.With(
		slog.String("key", key),
		slog.Int64("size", size),
	).Debug("attachment stored")

	return &entity.Attachment{
		FileID:   primitive.NilObjectID,
		Filename: filename,
		MIMEType: contentType,
		Size:     size,
		URL:      url,
	}, nil
}
