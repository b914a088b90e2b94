package errors

import "errors"

var (
	// DuplicateEmail is returned when an email address has already signed.
	DuplicateEmail = errors.New("email has already signed")

	// CodeGenerationExhausted is returned when no unique referral code could
	// be generated after the retry budget.
	CodeGenerationExhausted = errors.New("referral code generation exhausted")

	// ExternalProviderError covers any failure talking to the signing
	// provider, including non-2xx responses.
	ExternalProviderError = errors.New("signing provider request failed")

	// StorageUnavailable wraps storage-layer failures.
	StorageUnavailable = errors.New("storage unavailable")

	// SignatureVerificationFailed is returned when a webhook MAC does not
	// match the configured secret.
	SignatureVerificationFailed = errors.New("webhook signature verification failed")
)
