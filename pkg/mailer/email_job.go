package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Subject with Text/HTML is set (pre-rendered), or Template and Data
// are set and the worker renders them.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "welcome"
	Data     map[string]any `json:"data,omitempty"`
	// Kind tags the job for logs and metrics, e.g. "welcome".
	Kind string `json:"kind,omitempty"`
	// Ref is the id of the entity the message is about (the account id for welcome mail).
	Ref string `json:"ref,omitempty"`
}

// Rendered reports whether the job already carries its final content.
func (j EmailJob) Rendered() bool {
	return j.Subject != "" && (j.Text != "" || j.HTML != "")
}
