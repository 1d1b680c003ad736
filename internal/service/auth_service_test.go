package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-card-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func teacherClaims(expiresIn time.Duration) *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		Email:       "teacher@school.test",
		Role:        "authenticated",
		AppMetadata: map[string]interface{}{"role": "teacher"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "teacher-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{Secret: "secret", Audience: "authenticated"})

	claims, err := svc.ValidateToken(signToken(t, "secret", jwt.SigningMethodHS256, teacherClaims(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", claims.UserID())
	assert.Equal(t, models.RoleTeacher, claims.AppRole())
}

func TestAuthServiceValidateTokenRejects(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{Secret: "secret", Audience: "authenticated"})

	noSubject := teacherClaims(time.Hour)
	noSubject.Subject = ""

	wrongAudience := teacherClaims(time.Hour)
	wrongAudience.Audience = jwt.ClaimStrings{"anon"}

	cases := map[string]string{
		"wrong secret": signToken(t, "other", jwt.SigningMethodHS256, teacherClaims(time.Hour)),
		"expired":      signToken(t, "secret", jwt.SigningMethodHS256, teacherClaims(-time.Minute)),
		"wrong alg":    signToken(t, "secret", jwt.SigningMethodHS512, teacherClaims(time.Hour)),
		"no subject":   signToken(t, "secret", jwt.SigningMethodHS256, noSubject),
		"audience":     signToken(t, "secret", jwt.SigningMethodHS256, wrongAudience),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}
