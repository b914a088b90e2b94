package zapsign

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

var ErrMalformedToken = errors.New("malformed external id token")

// PendingSigner is the signer data handed to the provider inside the opaque
// external id and returned verbatim on the webhook. Nothing is persisted
// until the callback proves the signature happened.
type PendingSigner struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	WantsInvite bool    `json:"wantsInvite"`
	RefBy       *string `json:"refBy,omitempty"`
	RefCode     string  `json:"refCode"`
	Nonce       string  `json:"nonce,omitempty"`
}

// Complete reports whether the decoded token carries every field a signer
// record needs.
func (p PendingSigner) Complete() bool {
	return p.Name != "" && p.Email != "" && p.RefCode != ""
}

// EncodeExternalID serializes a pending signer into the provider external id.
// A fresh nonce keeps tokens unique even for retried sign attempts.
func EncodeExternalID(p PendingSigner) string {
	if p.Nonce == "" {
		p.Nonce = uuid.NewString()
	}

	b, _ := json.Marshal(p)

	return base64.StdEncoding.EncodeToString(b)
}

// DecodeExternalID parses a provider external id back into a pending signer,
// rejecting anything that is not base64-wrapped JSON.
func DecodeExternalID(externalID string) (PendingSigner, error) {
	raw, err := base64.StdEncoding.DecodeString(externalID)
	if err != nil {
		return PendingSigner{}, ErrMalformedToken
	}

	var p PendingSigner
	if err := json.Unmarshal(raw, &p); err != nil {
		return PendingSigner{}, ErrMalformedToken
	}

	return p, nil
}
