package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

const (
	FromName        = "Storefront"
	maxRetries      = 3
	ReceiptTemplate = "receipt.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, name, email string, data any) error
}

// Message is a rendered template.
type Message struct {
	Subject string
	Plain   string
	HTML    string
}

// Render executes the subject, plainBody and htmlBody blocks of a template.
func Render(templateFile string, data any) (*Message, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return nil, fmt.Errorf("mailer: parse %s: %w", templateFile, err)
	}

	var msg Message
	for name, dst := range map[string]*string{
		"subject":   &msg.Subject,
		"plainBody": &msg.Plain,
		"htmlBody":  &msg.HTML,
	} {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			return nil, fmt.Errorf("mailer: render %s/%s: %w", templateFile, name, err)
		}
		*dst = buf.String()
	}
	return &msg, nil
}

// Noop renders but never sends. Used when SMTP is not configured.
type Noop struct{}

func (Noop) Send(templateFile, name, email string, data any) error {
	_, err := Render(templateFile, data)
	return err
}
