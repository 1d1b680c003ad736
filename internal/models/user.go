package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the profile roles carried in access tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// JWTClaims is the access token payload issued by the hosted auth service.
// The subject claim carries the profile id.
type JWTClaims struct {
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the profile id of the token subject.
func (c *JWTClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// AppRole resolves the application role from app metadata, falling back to user metadata.
func (c *JWTClaims) AppRole() UserRole {
	if c == nil {
		return ""
	}
	for _, meta := range []map[string]interface{}{c.AppMetadata, c.UserMetadata} {
		if raw, ok := meta["role"].(string); ok && raw != "" {
			return UserRole(raw)
		}
	}
	return ""
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
