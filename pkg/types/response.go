package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// WebhookAck is the marketplace-facing acknowledgment contract: the webhook
// endpoint answers with it (not the standard envelope) so iFood's retry logic
// sees the shape it expects.
type WebhookAck struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
}

// WebhookError is the marketplace-facing error body for 4xx/5xx responses.
type WebhookError struct {
	Error string `json:"error"`
}
