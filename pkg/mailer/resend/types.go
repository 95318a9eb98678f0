package resend

import "fmt"

// SendRequest is the body of POST /emails
type SendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Tags    []Tag    `json:"tags,omitempty"`
}

// Tag labels an email for filtering in the provider dashboard
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Validate checks the fields the API requires
func (r *SendRequest) Validate() error {
	if len(r.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrInvalidRequest)
	}
	if r.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidRequest)
	}
	if r.HTML == "" && r.Text == "" {
		return fmt.Errorf("%w: html or text body is required", ErrInvalidRequest)
	}
	return nil
}

// SendResponse is returned on success
type SendResponse struct {
	ID string `json:"id"`
}

// APIError is the error body Resend returns on 4xx/5xx
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend api error %d (%s): %s", e.StatusCode, e.Name, e.Message)
}
