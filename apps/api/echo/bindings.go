package echoapi

import (
	"github.com/nm2tech/classroom/core"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Username = core.CleanString(r.Username, true /* lower */)
	return core.Validate.Struct(r)
}

type LoginResponse struct {
	Token string `json:"token"`
}

type FaqRequest struct {
	Question string `json:"question" validate:"required"`
}

func (r *FaqRequest) Validate() error {
	r.Question = core.CleanString(r.Question)
	return core.Validate.Struct(r)
}

type FaqResponse struct {
	Answer string `json:"answer"`
}

// ConfirmResponse is the first phase of a destructive delete: the caller must
// repeat the request with this token to make it happen.
type ConfirmResponse struct {
	ConfirmToken string `json:"confirm_token"`
}

type AffectedResponse struct {
	Deleted int `json:"deleted"`
}
