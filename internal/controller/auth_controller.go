// internal/controller/auth_controller.go
package controller

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/handler"
)

type Authenticator interface {
	Login(email, password string) (string, time.Time, error)
}

type AuthController struct {
	Auth   Authenticator
	Logger *zap.Logger
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.Fail(w, c.Logger, err)
		return
	}

	token, exp, err := c.Auth.Login(body.Email, body.Password)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("admin login failed", zap.String("remote", r.RemoteAddr))
		}
		handler.Fail(w, c.Logger, err)
		return
	}
	handler.OK(w, map[string]any{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": exp,
	})
}
