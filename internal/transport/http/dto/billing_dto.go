package dto

type StripeWebhookResponse struct {
	Received  bool `json:"received"`
	Credited  bool `json:"credited"`
	Duplicate bool `json:"duplicate,omitempty"`
	Ignored   bool `json:"ignored,omitempty"`
}
