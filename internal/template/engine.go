package template

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/go-sprout/sprout"
	"github.com/go-sprout/sprout/group/all"
)

// Engine renders template strings against a platform Context using the
// sprout function registry.
type Engine struct {
	ctx   *Context
	funcs template.FuncMap
}

// NewEngine creates an Engine bound to the given context.
func NewEngine(ctx *Context) *Engine {
	handler := sprout.New()

	// Registration of the built-in groups cannot fail for the stock registries;
	// fall back to an empty func map if it somehow does.
	funcs := template.FuncMap{}
	if err := handler.AddGroups(all.RegistryGroup()); err == nil {
		funcs = handler.Build()
	}

	return &Engine{
		ctx:   ctx,
		funcs: funcs,
	}
}

// Context returns the context the engine renders against.
func (e *Engine) Context() *Context {
	return e.ctx
}

// RenderString renders a template string against the engine's context.
// Strings without template delimiters are returned unchanged.
func (e *Engine) RenderString(name, tmplStr string) (string, error) {
	if !strings.Contains(tmplStr, "{{") {
		return tmplStr, nil
	}

	t, err := template.New(name).Funcs(e.funcs).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}

	var sb strings.Builder
	if err := t.Execute(&sb, e.ctx); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}

	return sb.String(), nil
}
