package dto

// WebhookResponse acknowledges a webhook delivery. Received reports that
// the delivery reached the handler; Processed reports that it caused a
// settlement. A business failure still acknowledges with Received true so
// the provider does not retry indefinitely.
type WebhookResponse struct {
	Received  bool   `json:"received"`
	Processed bool   `json:"processed"`
	Error     string `json:"error,omitempty"`
}
