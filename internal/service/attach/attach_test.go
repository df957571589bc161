package attach

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"MarketChat/entity"
	"MarketChat/internal/config"
)

type fakeUploader struct {
	lastMeta entity.FileMetadata
	data     bytes.Buffer
}

func (f *fakeUploader) UploadAttachment(_ string, reader io.Reader, meta entity.FileMetadata) (primitive.ObjectID, int64, error) {
	f.lastMeta = meta
	n, err := io.Copy(&f.data, reader)
	return primitive.NewObjectID(), n, err
}

func testConfig(backend string) *config.Config {
	conf := &config.Config{}
	conf.Storage.Backend = backend
	conf.Files.Secret = "test-secret"
	conf.Files.TTLMin = 30
	return conf
}

func TestGridFSStorePut(t *testing.T) {
	uploader := &fakeUploader{}
	store, err := NewStore(testConfig("gridfs"), uploader, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	body := strings.NewReader("fake image bytes")
	att, err := store.Put(context.Background(), "photo.jpg", "image/jpeg", int64(body.Len()), body, entity.FileMetadata{UploaderID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, "photo.jpg", att.Filename)
	assert.Equal(t, "image/jpeg", att.MIMEType)
	assert.Equal(t, "image/jpeg", uploader.lastMeta.MIMEType)
	assert.Equal(t, int64(len("fake image bytes")), att.Size)
	assert.Contains(t, att.URL, "/files/"+att.FileID.Hex())
	assert.Contains(t, att.URL, "sig=")
	assert.True(t, entity.ValidImageURL("https://host"+att.URL) || strings.HasPrefix(att.URL, "/files/"))
}

func TestGridFSStoreRejectsOversize(t *testing.T) {
	store, err := NewStore(testConfig("gridfs"), &fakeUploader{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "huge.jpg", "image/jpeg", entity.MaxAttachmentSize+1, strings.NewReader(""), entity.FileMetadata{})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestNewStoreUnknownBackend(t *testing.T) {
	_, err := NewStore(testConfig("ftp"), &fakeUploader{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
