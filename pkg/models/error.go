package models

import "encoding/json"

type ErrorPayload struct {
	Error string `json:"error"`
}

func CreateError(msg string) []byte {
	b, _ := json.Marshal(ErrorPayload{
		Error: msg,
	})
	return b
}

type StatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// CreateStatus builds the acknowledgement body the webhook handler returns
// to the provider.
func CreateStatus(status, msg string) []byte {
	b, _ := json.Marshal(StatusPayload{
		Status:  status,
		Message: msg,
	})
	return b
}
