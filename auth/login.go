package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Poster sends a JSON body and decodes the JSON reply.
type Poster interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Credentials are what the backend's /login expects.
type Credentials struct {
	UserName string `json:"user_name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the backend's /login reply.
type LoginResponse struct {
	Token   string          `json:"token"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	User    json.RawMessage `json:"user,omitempty"`
}

var validate = validator.New()

// BackendLogin exchanges credentials for a token and signs the operator in.
func (p *Provider) BackendLogin(ctx context.Context, client Poster, creds Credentials) (*Session, string, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, "", fmt.Errorf("user name and password are required: %w", err)
	}

	var resp LoginResponse
	if err := client.Post(ctx, "/login", creds, &resp); err != nil {
		return nil, "", fmt.Errorf("login request failed: %w", err)
	}
	if resp.Token == "" {
		msg := resp.Error
		if msg == "" {
			msg = "Login failed"
		}
		return nil, "", errors.New(msg)
	}

	s, err := p.Login(ctx, resp.Token, resp.User)
	if err != nil {
		return nil, "", err
	}
	return s, resp.Message, nil
}
