package entity

import (
	"MarketChat/internal/lib/validate"
	"net/http"
)

// UserAuth identifies an authenticated API caller.
type UserAuth struct {
	Username string `json:"username" bson:"username" validate:"required"`
	Token    string `json:"token" bson:"token" validate:"required,min=1"`
}

func (u *UserAuth) Bind(_ *http.Request) error {
	return validate.Struct(u)
}
