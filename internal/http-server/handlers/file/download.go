package file

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"MarketChat/internal/lib/fileurl"
)

// Download streams an attachment from GridFS. The URL carries its own
// HMAC signature and expiry, so no Authorization header is needed and the
// link works inside <img src>.
// Endpoint: GET /files/{file_id}?expires=...&sig=...
func Download(log *slog.Logger, handler Core, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileIDStr := chi.URLParam(r, "file_id")
		if fileIDStr == "" {
			http.Error(w, "file_id is required", http.StatusBadRequest)
			return
		}

		expires := r.URL.Query().Get("expires")
		sig := r.URL.Query().Get("sig")
		if !fileurl.Verify(fileIDStr, expires, sig, secret) {
			http.Error(w, "link expired or invalid", http.StatusForbidden)
			return
		}

		fileID, err := primitive.ObjectIDFromHex(fileIDStr)
		if err != nil {
			http.Error(w, "invalid file_id", http.StatusBadRequest)
			return
		}

		filename, meta, reader, err := handler.DownloadAttachment(fileID)
		if err != nil {
			log.Error("failed to download file",
				slog.String("file_id", fileIDStr),
				slog.String("error", err.Error()),
			)
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		defer reader.Close()

		if meta.MIMEType != "" {
			w.Header().Set("Content-Type", meta.MIMEType)
		} else {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))

		if _, err := io.Copy(w, reader); err != nil {
			log.Error("failed to stream file",
				slog.String("file_id", fileIDStr),
				slog.String("error", err.Error()),
			)
		}
	}
}
