package transfer

import "github.com/golang-jwt/jwt/v5"

// CustomClaims back both the session cookie and the OAuth state token;
// BrandID is only set on state tokens so the callback knows which brand
// the connected account belongs to.
type CustomClaims struct {
	BrandID int64 `json:"brand_id,omitempty"`
	jwt.RegisteredClaims
}

type GoogleUserInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}
