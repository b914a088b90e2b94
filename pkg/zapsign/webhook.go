package zapsign

// Webhook event names and statuses the provider delivers.
const (
	WebhookEventDocumentSigned = "document_signed"
	WebhookStatusSigned        = "signed"

	// SignatureHeader carries the MAC over the raw request body.
	SignatureHeader = "x-zapsign-signature"
)

type WebhookPayload struct {
	EventType        string `json:"event_type"`
	DocumentID       string `json:"document_id"`
	SignerExternalID string `json:"signer_external_id"`
	SignerEmail      string `json:"signer_email"`
	Timestamp        string `json:"timestamp"`
	SignatureStatus  string `json:"signature_status"`
}
