package feishu

import (
	"context"
	"fmt"

	"bitableqa/internal/fetcher"
	"bitableqa/internal/logger"
	"bitableqa/internal/ratelimit"

	"resty.dev/v3"
)

const tokenPath = "/auth/v3/tenant_access_token/internal"

type tokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

// TokenResponse represents the Feishu response for a tenant access token
type TokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"` // seconds
}

// TokenProvider exchanges an app id and secret for a tenant access token
type TokenProvider struct {
	appID     string
	appSecret string
	client    *resty.Client
}

// NewTokenProvider creates a new tenant access token provider
func NewTokenProvider(appID, appSecret, baseURL string, retryCount int) *TokenProvider {
	return &TokenProvider{
		appID:     appID,
		appSecret: appSecret,
		client:    fetcher.NewHTTPClient(baseURL, retryCount),
	}
}

// Token performs one token exchange. Every failure is reported as an error
// wrapping fetcher.ErrNoCredential and logged with what the server returned.
func (p *TokenProvider) Token(ctx context.Context) (fetcher.Credential, error) {
	log := logger.FromContext(ctx)

	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIFeishu); err != nil {
		return "", fmt.Errorf("%w: %w", fetcher.ErrNoCredential, err)
	}

	var result TokenResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(tokenRequest{AppID: p.appID, AppSecret: p.appSecret}).
		SetResult(&result).
		Post(tokenPath)

	if err != nil {
		log.Error().Err(err).Msg("tenant access token request failed")
		return "", fmt.Errorf("%w: %w", fetcher.ErrNoCredential, fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		log.Error().
			Int("status_code", resp.StatusCode()).
			Str("body", resp.String()).
			Msg("tenant access token request rejected")
		return "", fmt.Errorf("%w: %w", fetcher.ErrNoCredential, fetcher.ClassifyHTTPError(resp.StatusCode()))
	}

	if result.Code != 0 {
		log.Error().
			Int("code", result.Code).
			Str("msg", result.Msg).
			Msg("error getting tenant access token")
		return "", fmt.Errorf("%w: %w", fetcher.ErrNoCredential, fetcher.NewAPIError(result.Code, result.Msg))
	}

	if result.TenantAccessToken == "" {
		log.Error().Str("body", resp.String()).Msg("tenant access token missing from response")
		return "", fmt.Errorf("%w: %w", fetcher.ErrNoCredential, fetcher.NewValidationError("tenant_access_token not found in response"))
	}

	log.Debug().Int("expire", result.Expire).Msg("obtained tenant access token")

	return fetcher.Credential(result.TenantAccessToken), nil
}
