package attachment

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"MarketChat/entity"
	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/lib/api/cont"
	"MarketChat/internal/lib/api/response"
	"MarketChat/internal/lib/sl"
)

type UploadResponse struct {
	response.Response
	Attachment *entity.Attachment `json:"attachment"`
}

// Upload stores one image blob and returns its attachment record. The
// returned URL is what callers put into a message's image_url.
// Endpoint: POST /api/v1/attachments
// Content-Type: multipart/form-data
// Fields: file (single), conversation_id (optional)
func Upload(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthenticated"))
			return
		}

		if err := r.ParseMultipartForm(entity.MaxAttachmentSize); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid multipart form"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("file field is required"))
			return
		}
		defer file.Close()

		if header.Size > entity.MaxAttachmentSize {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error(entity.FileTooLargeError(header.Filename, header.Size).Error()))
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		meta := entity.FileMetadata{
			MIMEType:       mimeType,
			UploaderID:     user.Username,
			ConversationID: r.FormValue("conversation_id"),
		}

		att, err := handler.UploadAttachment(r.Context(), header.Filename, mimeType, header.Size, file, meta)
		if err != nil {
			log.Error("attachment upload failed",
				slog.String("filename", header.Filename),
				sl.Err(err),
			)
			errors.Fail(w, r, err)
			return
		}

		render.JSON(w, r, UploadResponse{
			Response:   response.OK(),
			Attachment: att,
		})
	}
}
