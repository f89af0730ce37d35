package client

import (
	"fmt"
	"net/http"

	"si-go/internal/si"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string

	baseURL  string
	tokenEnv string
}

func (e *APIError) Error() string {
	if e.StatusCode == http.StatusUnauthorized {
		return fmt.Sprintf("invalid token: visit %s/app/personal-access-tokens to generate one, then run `export %s=<your_token>`",
			e.baseURL, e.tokenEnv)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is makes a 401 match si.ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == si.ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
