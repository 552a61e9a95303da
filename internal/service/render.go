// internal/service/render.go
package service

import (
	"github.com/osteele/liquid"
)

// Renderer renders campaign content with a recipient's merge data using
// Liquid templates ({{ first_name }} etc).
type Renderer struct {
	engine *liquid.Engine
}

func NewRenderer() *Renderer {
	return &Renderer{engine: liquid.NewEngine()}
}

func (r *Renderer) Render(template string, data map[string]interface{}) (string, error) {
	if template == "" {
		return "", nil
	}
	return r.engine.ParseAndRenderString(template, data)
}
