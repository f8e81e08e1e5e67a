package common

const (
	// APIKeyHeaderName carries the shared API key on every request.
	APIKeyHeaderName = "X-Gator-Api-Key"

	// AppIDHeaderName carries the application id when one is configured.
	AppIDHeaderName = "X-Gator-App-Id"

	// AuthorizationHeaderName carries the bearer access token, and on
	// responses the rotated access token.
	AuthorizationHeaderName = "Authorization"

	// RefreshTokenCookieName is the cookie holding the refresh token.
	RefreshTokenCookieName = "refreshToken"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "
)
