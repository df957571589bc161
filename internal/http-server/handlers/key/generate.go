package key

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/lib/api/response"
	"MarketChat/internal/lib/sl"
	"MarketChat/internal/lib/validate"
)

type GenerateRequest struct {
	Username string `json:"username" validate:"required"`
}

type GenerateResponse struct {
	response.Response
	Key string `json:"key"`
}

// Generate issues an API key for a username, or returns the existing one.
func Generate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		k, err := handler.GenerateApiKey(req.Username)
		if err != nil {
			log.Error("generate api key failed",
				slog.String("username", req.Username),
				sl.Err(err),
			)
			errors.Fail(w, r, err)
			return
		}

		render.JSON(w, r, GenerateResponse{
			Response: response.OK(),
			Key:      k,
		})
	}
}
