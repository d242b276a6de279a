package http

import (
	"net/http"

	"fintrack/internal/auth"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "signup", err)
		return
	}
	msg, err := s.deps.Auth.Signup(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password)
	if err != nil {
		if statusFor(err) == http.StatusConflict {
			writeError(w, http.StatusConflict, auth.MsgUserExists)
			return
		}
		fail(w, r, "signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, messageBody{Message: msg})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "login", err)
		return
	}
	u, err := s.deps.Auth.Login(r.Context(), sanitizeInput(req.Name), req.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			writeError(w, http.StatusUnauthorized, auth.MsgInvalidCredential)
			return
		}
		fail(w, r, "login", err)
		return
	}
	sess := s.deps.Auth.StartSession(u)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:   sess.Token,
		UserID:  sess.UserID,
		Name:    sess.Name,
		Message: "Welcome " + sess.Name + "!",
	})
}

// handleLogout ends the session; the auth service resets the chat state.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Auth.Logout(r.Context(), bearerToken(r))
	writeJSON(w, http.StatusOK, messageBody{Message: "Logged out."})
}
