package rest

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/dmitrijs2005/gatorauth/internal/server/apperr"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, apperr.E(apperr.KindBadRequest, "invalid JSON body"))
		return false
	}
	return true
}

// userID validates the userId route parameter.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "userId")
	v := violations{}
	v.uuid("userId", id)
	if err := v.err(); err != nil {
		writeError(w, err)
		return "", false
	}
	return id, true
}

func (s *HTTPServer) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := violations{}
	v.email("email", req.Email)
	v.password("password", req.Password)
	if err := v.err(); err != nil {
		writeError(w, err)
		return
	}

	u, err := s.users.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		s.mapError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", u.ID)
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *HTTPServer) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := violations{}
	v.email("email", req.Email)
	v.password("password", req.Password)
	if err := v.err(); err != nil {
		writeError(w, err)
		return
	}

	resp, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.mapError(w, r, err)
		return
	}

	s.setRefreshCookie(w, resp.Tokens.RefreshToken)
	writeJSON(w, http.StatusOK, toAuthResponse(resp))
}

func (s *HTTPServer) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *HTTPServer) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req updateEmailRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := violations{}
	v.email("newEmail", req.NewEmail)
	if err := v.err(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.UpdateEmail(r.Context(), id, req.NewEmail); err != nil {
		s.mapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req updatePasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := violations{}
	v.password("newPassword", req.NewPassword)
	if err := v.err(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.UpdatePassword(r.Context(), id, req.NewPassword); err != nil {
		s.mapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		s.mapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) ReissueToken(w http.ResponseWriter, r *http.Request) {
	var req reissueTokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	v := violations{}
	v.required("refreshToken", req.RefreshToken, "Refresh token is a required field.")
	if err := v.err(); err != nil {
		writeError(w, err)
		return
	}

	pair, err := s.sessions.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		s.mapError(w, r, err)
		return
	}
	if pair.IsZero() {
		writeError(w, apperr.E(apperr.KindUnauthorized, "invalid refresh token"))
		return
	}

	s.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, pair)
}

// InvalidateToken logs out. It always answers 204; an unreadable body
// revokes nothing. The refresh cookie stands in for a missing refreshToken.
func (s *HTTPServer) InvalidateToken(w http.ResponseWriter, r *http.Request) {
	var req invalidateTokenRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken == "" {
		if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
			req.RefreshToken = c.Value
		}
	}

	s.sessions.Logout(r.Context(), req.AccessToken, req.RefreshToken)

	w.Header().Set(common.AuthorizationHeaderName, "")
	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
