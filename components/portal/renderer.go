package portal

import (
	"embed"
	"fmt"
	"io"

	template "github.com/goliatone/go-template"
)

// Page templates.
const (
	TemplateLogin  = "login.html"
	TemplatePortal = "portal.html"
)

// Renderer describes the template renderer contract needed by the pages.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

//go:embed templates/*.html templates/partials/*.html
var embeddedTemplates embed.FS

// NewTemplateRenderer creates a go-template renderer backed by the embedded templates.
func NewTemplateRenderer() (Renderer, error) {
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}

// LoginView is the render data of the sign-in page.
type LoginView struct {
	VendorID string  `json:"vendor_id"`
	Error    string  `json:"error,omitempty"`
	Toasts   []Toast `json:"toasts"`
	Demo     bool    `json:"demo"`
}

// Pages renders workspaces and the login form through a Renderer.
type Pages struct {
	renderer Renderer
}

// NewPages wraps renderer.
func NewPages(renderer Renderer) *Pages {
	return &Pages{renderer: renderer}
}

// RenderPortal renders view into out.
func (p *Pages) RenderPortal(view PageView, out io.Writer) error {
	data, err := view.Context()
	if err != nil {
		return err
	}
	return p.render(TemplatePortal, map[string]any{
		"page":   data,
		"toasts": toastContext(view.Toasts),
	}, out)
}

// RenderLogin renders the sign-in page into out.
func (p *Pages) RenderLogin(view LoginView, out io.Writer) error {
	return p.render(TemplateLogin, map[string]any{
		"vendor_id": view.VendorID,
		"error":     view.Error,
		"demo":      view.Demo,
		"toasts":    toastContext(view.Toasts),
	}, out)
}

func (p *Pages) render(name string, data map[string]any, out io.Writer) error {
	if p == nil || p.renderer == nil {
		return fmt.Errorf("portal: renderer not configured")
	}
	if _, err := p.renderer.Render(name, data, out); err != nil {
		return fmt.Errorf("portal: render %s: %w", name, err)
	}
	return nil
}

func toastContext(toasts []Toast) []map[string]any {
	out := make([]map[string]any, 0, len(toasts))
	for _, t := range toasts {
		out = append(out, map[string]any{
			"id":      t.ID,
			"type":    string(t.Level),
			"message": t.Message,
		})
	}
	return out
}
