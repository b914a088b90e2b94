// Package zapsign talks to the ZapSign e-signature API and verifies its
// webhook callbacks.
package zapsign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	apierrors "github.com/firmaya/api/pkg/errors"
)

const DefaultBaseURL = "https://api.zapsign.co"
const widgetBaseURL = "https://app.zapsign.co/verificar/"

type Client struct {
	APIKey     string
	TemplateID string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(apiKey, templateID string) *Client {
	return &Client{
		APIKey:     apiKey,
		TemplateID: templateID,
		BaseURL:    DefaultBaseURL,
		HTTPClient: http.DefaultClient,
	}
}

type createSignerRequest struct {
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	ExternalID            string `json:"external_id"`
	SendAutomaticEmail    bool   `json:"send_automatic_email"`
	SendAutomaticWhatsapp bool   `json:"send_automatic_whatsapp"`
}

type createSignerResponse struct {
	SignerToken string `json:"signer_token"`
}

// CreateSigner registers a signer on the configured document template and
// returns the provider's signer token. The external id travels through the
// provider opaquely and comes back on the webhook.
func (c *Client) CreateSigner(ctx context.Context, name, email, externalID string) (string, error) {
	body, err := json.Marshal(createSignerRequest{
		Name:       name,
		Email:      email,
		ExternalID: externalID,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apierrors.ExternalProviderError, err)
	}

	url := fmt.Sprintf("%s/documents/%s/signers", c.BaseURL, c.TemplateID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apierrors.ExternalProviderError, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apierrors.ExternalProviderError, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		bdy, _ := io.ReadAll(res.Body)
		fmt.Fprintf(os.Stderr, "zapsign responded with status %d: %s\n", res.StatusCode, string(bdy))
		return "", fmt.Errorf("%w: status %d", apierrors.ExternalProviderError, res.StatusCode)
	}

	var out createSignerResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", apierrors.ExternalProviderError, err)
	}

	if out.SignerToken == "" {
		return "", fmt.Errorf("%w: empty signer token", apierrors.ExternalProviderError)
	}

	return out.SignerToken, nil
}

// WidgetURL is the embeddable signing page for a signer token.
func WidgetURL(signerToken string) string {
	return widgetBaseURL + signerToken
}
