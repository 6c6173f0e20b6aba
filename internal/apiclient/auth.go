package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/session"
)

// loginRequest is the POST /api/auth/login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Password, validation.Required),
	)
}

// loginResponse is the auth endpoint's shape. Unlike content endpoints the
// token and user ride at the top level, not under data.
type loginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    content.User `json:"user"`
	Message string       `json:"message,omitempty"`
}

// Login authenticates against the upstream auth endpoint and, on success,
// establishes the credential in the session (memory plus durable store).
// The token is stored opaque; its validity is learned only from subsequent
// server responses.
func (c *Client) Login(ctx context.Context, username, password string) (session.Credential, error) {
	req := loginRequest{Username: username, Password: password}
	if err := req.Validate(); err != nil {
		return session.Credential{}, fmt.Errorf("apiclient: login: %w", err)
	}

	// A rejected login is a 401 on the login route itself; the unauthorized
	// handler must not treat it as an expired admin session.
	ctx = WithRoute(ctx, session.LoginRoute)

	resp, err := c.Do(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return session.Credential{}, err
	}
	defer resp.Body.Close()

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return session.Credential{}, fmt.Errorf("apiclient: malformed login response: %w", err)
	}
	if !lr.Success || lr.Token == "" {
		if lr.Message != "" {
			return session.Credential{}, fmt.Errorf("apiclient: login rejected: %s", lr.Message)
		}
		return session.Credential{}, fmt.Errorf("apiclient: login rejected")
	}

	cred := session.Credential{Token: lr.Token, User: lr.User}
	if err := c.session.Establish(cred); err != nil {
		return session.Credential{}, fmt.Errorf("apiclient: store credential: %w", err)
	}
	return cred, nil
}
