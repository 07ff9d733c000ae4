package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"gatherplan/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// templateRenderer implements domain.EmailTemplateRenderer. All templates are
// parsed once from the embedded folder; each email name has three files:
// <name>_subject.txt, <name>.html, and <name>.txt.
type templateRenderer struct {
	html *template.Template
	text *texttemplate.Template
}

// NewTemplateRenderer returns an EmailTemplateRenderer backed by the embedded
// templates folder. It panics if any embedded template fails to parse.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &templateRenderer{
		html: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		text: texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt")),
	}
}

func (r *templateRenderer) Render(templateName string, data interface{}) (subject, htmlBody, textBody string, err error) {
	subject, err = r.renderText(templateName+"_subject.txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	htmlBody, err = r.renderHTML(templateName+".html", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	textBody, err = r.renderText(templateName+".txt", data)
	if err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return strings.TrimSpace(subject), htmlBody, textBody, nil
}

func (r *templateRenderer) renderHTML(name string, data interface{}) (string, error) {
	t := r.html.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *templateRenderer) renderText(name string, data interface{}) (string, error) {
	t := r.text.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
