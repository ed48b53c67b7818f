package main

import (
	"bytes"
	"fmt"
	"text/template"
)

// messageTemplate personalizes the message body per contact. The body is a
// text/template with the contact's number available as {{.Number}}; WhatsApp
// markup tokens (*bold*, _italic_) pass through untouched since they are just
// literal characters to the template engine.
type messageTemplate struct {
	tmpl *template.Template

	// Raw is the unrendered body, used for the sent-tracker hash.
	Raw string
}

func newMessageTemplate(body string) (*messageTemplate, error) {
	tmpl, err := template.New("message").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message template: %w", err)
	}
	return &messageTemplate{tmpl: tmpl, Raw: body}, nil
}

func (mt *messageTemplate) render(number string) (string, error) {
	var buf bytes.Buffer
	data := map[string]string{"Number": number}
	if err := mt.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render message template: %w", err)
	}
	return buf.String(), nil
}
