package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims carried by access tokens
const (
	ClaimUserID     = "user_id"
	ClaimEmployeeID = "employee_id"
	ClaimIsAdmin    = "is_admin"
	ClaimType       = "type"

	TokenTypeAccess = "access"
)

type Service interface {
	GenerateAccessToken(userID string, employeeID *string, isAdmin bool) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

// JWTService verifies HS256 tokens issued by the identity service. It can
// also issue them, which the operator tooling and tests rely on.
type JWTService struct {
	accessTokenTTL time.Duration
	tokenAuth      *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenTTL time.Duration) Service {
	if accessTokenTTL <= 0 {
		accessTokenTTL = time.Hour
	}
	return &JWTService{
		accessTokenTTL: accessTokenTTL,
		tokenAuth:      jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(userID string, employeeID *string, isAdmin bool) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenTTL).Unix()

	claims := map[string]interface{}{
		ClaimUserID:  userID,
		ClaimIsAdmin: isAdmin,
		ClaimType:    TokenTypeAccess,
		"exp":        expiresAt,
	}
	if employeeID != nil {
		claims[ClaimEmployeeID] = *employeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}
