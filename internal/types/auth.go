package types

import "github.com/golang-jwt/jwt/v5"

// RegisterFamilyRequest creates a family account plus its members.
type RegisterFamilyRequest struct {
	FamilyName        string         `json:"family_name"`
	Email             string         `json:"email"`
	Password          string         `json:"password"`
	PreferredLanguage Language       `json:"preferred_language,omitempty"`
	Members           []FamilyMember `json:"members"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	FamilyID    string `json:"family_id"`
	FamilyName  string `json:"family_name"`
}

// Claims are the custom JWT claims for a family session.
type Claims struct {
	FamilyID   string `json:"fid"`
	FamilyName string `json:"fam,omitempty"`
	Email      string `json:"eml"`
	jwt.RegisteredClaims
}

type UpdateFamilyRequest struct {
	FamilyName        *string         `json:"family_name,omitempty"`
	PreferredLanguage *Language       `json:"preferred_language,omitempty"`
	Members           *[]FamilyMember `json:"members,omitempty"`
}
