// Package twilio wraps the Twilio Verify API for phone OTP flows.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	AccountSID string
	AuthToken  string
	ServiceSID string
	BaseURL    string
	Timeout    time.Duration
}

// Verifier starts and checks SMS verifications against one Verify service.
type Verifier struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("twilio: account sid and auth token required")
	}
	if strings.TrimSpace(cfg.ServiceSID) == "" {
		return nil, fmt.Errorf("twilio: verify service sid required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://verify.twilio.com/v2"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Verifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// StartVerification sends an OTP over SMS to an E.164 phone and returns
// the provider status (normally "pending").
func (v *Verifier) StartVerification(ctx context.Context, phone string) (string, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Channel", "sms")
	endpoint := fmt.Sprintf("%s/Services/%s/Verifications", v.cfg.BaseURL, v.cfg.ServiceSID)
	return v.doForm(ctx, endpoint, form)
}

// CheckVerification checks a code; "approved" means it matched.
func (v *Verifier) CheckVerification(ctx context.Context, phone, code string) (string, error) {
	form := url.Values{}
	form.Set("To", phone)
	form.Set("Code", code)
	endpoint := fmt.Sprintf("%s/Services/%s/VerificationCheck", v.cfg.BaseURL, v.cfg.ServiceSID)
	return v.doForm(ctx, endpoint, form)
}

type verificationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (v *Verifier) doForm(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(v.cfg.AccountSID, v.cfg.AuthToken)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("twilio: read response: %w", err)
	}

	var parsed verificationResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("twilio: decode response (http %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Message != "" {
			return "", fmt.Errorf("twilio: http %d: %s (code=%d)", resp.StatusCode, parsed.Message, parsed.Code)
		}
		return "", fmt.Errorf("twilio: http %d", resp.StatusCode)
	}
	return parsed.Status, nil
}
