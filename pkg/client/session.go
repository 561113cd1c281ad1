package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultSessionEndpoint is the public session server join endpoint.
const DefaultSessionEndpoint = "https://sessionserver.mojang.com/session/minecraft/join"

// SessionJoiner announces an online-mode login to the session server before
// the client answers the encryption request.
type SessionJoiner interface {
	Join(ctx context.Context, creds Credentials, serverHash string) error
}

// SessionJoinerFunc adapts a function to SessionJoiner.
type SessionJoinerFunc func(ctx context.Context, creds Credentials, serverHash string) error

// Join calls f.
func (f SessionJoinerFunc) Join(ctx context.Context, creds Credentials, serverHash string) error {
	return f(ctx, creds, serverHash)
}

// HTTPSessionJoiner posts join requests over HTTP.
type HTTPSessionJoiner struct {
	// Endpoint is the join URL.
	// Default: DefaultSessionEndpoint.
	Endpoint string

	// Client sends the request.
	// Default: an http.Client with a 10 second timeout.
	Client *http.Client
}

type joinRequest struct {
	AccessToken     string `json:"accessToken"`
	SelectedProfile string `json:"selectedProfile"`
	ServerID        string `json:"serverId"`
}

type joinErrorBody struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

var defaultSessionClient = &http.Client{Timeout: 10 * time.Second}

// Join posts the credentials and server hash. Any status other than 200 or
// 204 is an *AuthError carrying the server's error message.
func (j *HTTPSessionJoiner) Join(ctx context.Context, creds Credentials, serverHash string) error {
	endpoint := j.Endpoint
	if endpoint == "" {
		endpoint = DefaultSessionEndpoint
	}
	httpClient := j.Client
	if httpClient == nil {
		httpClient = defaultSessionClient
	}

	body, err := json.Marshal(joinRequest{
		AccessToken:     creds.AccessToken,
		SelectedProfile: creds.ProfileID,
		ServerID:        serverHash,
	})
	if err != nil {
		return &AuthError{Op: "join", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &AuthError{Op: "join", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return &AuthError{Op: "join", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb joinErrorBody
	reason := ""
	if json.Unmarshal(raw, &eb) == nil {
		reason = eb.ErrorMessage
		if reason == "" {
			reason = eb.Error
		}
	}
	return &AuthError{
		Op:     "join",
		Reason: reason,
		Err:    fmt.Errorf("session server returned %s", resp.Status),
	}
}
