package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier checks registration tokens against Google's
// siteverify endpoint. With no secret configured Verify always succeeds:
// the check is an optional gate, not a hard dependency.
type RecaptchaVerifier struct {
	secret string
	client *http.Client
}

// NewRecaptchaVerifier constructs a verifier; secret may be empty.
func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret: secret,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether a secret is configured.
func (r *RecaptchaVerifier) Enabled() bool { return r.secret != "" }

// Verify returns nil when the token passes (or the check is disabled) and
// an error describing the rejection otherwise.
func (r *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("recaptcha: missing token")
	}

	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recaptchaVerifyURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("recaptcha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("recaptcha: verify call: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("recaptcha: decode response: %w", err)
	}
	if !body.Success {
		return fmt.Errorf("recaptcha: token rejected: %s", strings.Join(body.ErrorCodes, ","))
	}
	return nil
}
