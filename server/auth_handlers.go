package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/stevohstine/rolebase-access/auth"
	"github.com/stevohstine/rolebase-access/token"
)

const (
	contentTypeJSON    = "application/json; charset=utf-8"
	invalidPayload     = "Invalid payload"
	somethingWentWrong = "Something went wrong."
)

type registrationRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// authResult is the response body shared by the register, login, and refresh
// endpoints.
type authResult struct {
	Success      bool     `json:"success"`
	Token        string   `json:"token,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

func successResult(pair *token.Pair) authResult {
	return authResult{Success: true, Token: pair.AccessToken, RefreshToken: pair.RefreshToken}
}

func failureResult(messages ...string) authResult {
	return authResult{Success: false, Errors: messages}
}

func writeAuthResult(w http.ResponseWriter, status int, result authResult) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAuthResult(w, http.StatusBadRequest, failureResult(invalidPayload))
			return
		}
		if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" || req.Password == "" {
			writeAuthResult(w, http.StatusBadRequest, failureResult(invalidPayload))
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		pair, err := s.auth.Register(ctx, req.Email, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrEmailInUse) {
				writeAuthResult(w, http.StatusBadRequest, failureResult("Email is already in use"))
				return
			}
			s.log.Error().Err(err).Msg("registration failed")
			writeAuthResult(w, http.StatusInternalServerError, failureResult(somethingWentWrong))
			return
		}

		writeAuthResult(w, http.StatusOK, successResult(pair))
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAuthResult(w, http.StatusBadRequest, failureResult(invalidPayload))
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeAuthResult(w, http.StatusBadRequest, failureResult(invalidPayload))
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		pair, err := s.auth.Login(ctx, req.Email, req.Password)
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			writeAuthResult(w, http.StatusBadRequest, failureResult("User not found"))
			return
		case errors.Is(err, auth.ErrInvalidPassword):
			writeAuthResult(w, http.StatusBadRequest, failureResult("Invalid password"))
			return
		case err != nil:
			s.log.Error().Err(err).Msg("login failed")
			writeAuthResult(w, http.StatusInternalServerError, failureResult(somethingWentWrong))
			return
		}

		writeAuthResult(w, http.StatusOK, successResult(pair))
	}
}

func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAuthResult(w, http.StatusBadRequest, failureResult(invalidPayload))
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		pair, err := s.rotator.Redeem(ctx, req.Token, req.RefreshToken)
		if err != nil {
			if redeemErr, ok := token.AsRedeemError(err); ok {
				writeAuthResult(w, http.StatusBadRequest, failureResult(redeemErr.Message))
				return
			}
			writeAuthResult(w, http.StatusInternalServerError, failureResult(somethingWentWrong))
			return
		}

		writeAuthResult(w, http.StatusOK, successResult(pair))
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// requestContext bounds collaborator calls made on behalf of a request.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.config.GetCollaboratorTimeout())
}
