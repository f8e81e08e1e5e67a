package rest

import (
	"github.com/dmitrijs2005/gatorauth/internal/server/models"
	"github.com/dmitrijs2005/gatorauth/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateEmailRequest struct {
	NewEmail string `json:"newEmail"`
}

type updatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type reissueTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type invalidateTokenRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{UserID: u.ID, Email: u.Email, EmailVerified: u.EmailVerified}
}

func toAuthResponse(a *services.AuthResponse) AuthResponse {
	return AuthResponse{
		User:         toUserResponse(a.User),
		AccessToken:  a.Tokens.AccessToken,
		RefreshToken: a.Tokens.RefreshToken,
	}
}
