package models

import (
	"time"

	id "didgate/pkg/domain"
	"didgate/pkg/validation"
)

// Organization is a registered relying party. Only the bcrypt hash of its API
// secret is stored.
type Organization struct {
	ID         id.OrganizationID `json:"orgId"`
	SecretHash string            `json:"secretHash"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type RegisterRequest struct {
	Name string `json:"name" validate:"required,orgid"`
}

func (r *RegisterRequest) Validate() error {
	return validation.Validate(r)
}

func (r *RegisterRequest) Organization() id.OrganizationID { return id.OrganizationID(r.Name) }

// RegisterResponse carries the plaintext secret. It is shown exactly once.
type RegisterResponse struct {
	OrganizationID id.OrganizationID `json:"orgId"`
	Secret         string            `json:"secret"`
	Message        string            `json:"message"`
}

type TokenRequest struct {
	OrganizationID string `json:"orgId" validate:"required,orgid"`
	Secret         string `json:"secret" validate:"required,notblank,max=200"`
}

func (r *TokenRequest) Validate() error {
	return validation.Validate(r)
}

func (r *TokenRequest) Organization() id.OrganizationID { return id.OrganizationID(r.OrganizationID) }

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
