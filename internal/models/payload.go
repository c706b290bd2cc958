package models

// ForwardMode selects how the attachment body travels in the webhook payload.
type ForwardMode string

const (
	// ForwardModeBase64 embeds the file content in the payload.
	ForwardModeBase64 ForwardMode = "base64"
	// ForwardModeFileURL sends a file:// reference instead of the bytes.
	ForwardModeFileURL ForwardMode = "file_url"
)

// WebhookPayload is the body POSTed to a subscription's webhook. Exactly one
// of DataB64 or URL is set, depending on the configured forward mode.
type WebhookPayload struct {
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
	Caption  string `json:"caption"`
	DataB64  string `json:"data_b64,omitempty"`
	URL      string `json:"url,omitempty"`
}

// ProvisionRequest is the body accepted by the provisioning endpoint.
type ProvisionRequest struct {
	Msisdn      string `json:"msisdn"`
	Name        string `json:"name"`
	VerifyCode  string `json:"verify_code"`
	WebhookURL  string `json:"webhook_url"`
	BearerToken string `json:"bearer_token"`
}
