package http

import (
	"errors"
	"net/http"

	"findash/internal/auth"
	"findash/internal/core"
	applog "findash/internal/log"
	"findash/internal/services"
)

// userResponse is the public view of a user returned with a token.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func newAuthResponse(res services.AuthResult) authResponse {
	return authResponse{
		Token: res.Token,
		User: userResponse{
			ID:    res.User.ID,
			Email: res.User.Email,
			Name:  res.User.Name,
			Role:  res.User.Role,
		},
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := s.auth.Register(ctx, p.Get("email"), p.GetRaw("password"), p.Get("name"))
	switch {
	case err == nil:
	case core.IsValidation(err):
		writeMessage(w, r, http.StatusBadRequest, registerValidationMessage(err))
		return
	case errors.Is(err, core.ErrUserExists):
		writeMessage(w, r, http.StatusBadRequest, msgUserExists)
		return
	default:
		applog.NewStructuredLogger(logger).LogError(ctx, "Registration failed", err, applog.OpRegister, nil)
		writeMessage(w, r, http.StatusInternalServerError, msgServerError)
		return
	}

	logger.InfoContext(ctx, "User registered", applog.FieldUserID, res.User.ID)
	writeJSON(w, r, http.StatusCreated, newAuthResponse(res))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := s.auth.Login(ctx, p.Get("email"), p.GetRaw("password"))
	switch {
	case err == nil:
	case errors.Is(err, core.ErrInvalidCredentials):
		logger.InfoContext(ctx, "Login rejected", applog.FieldOperation, applog.OpLogin)
		writeMessage(w, r, http.StatusBadRequest, msgInvalidCreds)
		return
	default:
		applog.NewStructuredLogger(logger).LogError(ctx, "Login failed", err, applog.OpLogin, nil)
		writeMessage(w, r, http.StatusInternalServerError, msgServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, newAuthResponse(res))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, r, http.StatusInternalServerError, msgServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

func registerValidationMessage(err error) string {
	var ve *core.ValidationError
	if errors.As(err, &ve) && ve.Field == "password" {
		return msgPasswordTooLong
	}
	return msgCredsRequired
}
