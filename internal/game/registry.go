package game

import "sort"

// Registry resolves static template definitions by id. Definitions are
// registered at startup and never mutated afterwards.
type Registry struct {
	templates map[string]*Template
	order     []string
}

// NewRegistry builds a registry from authored templates. Later duplicates
// of the same id replace earlier ones.
func NewRegistry(templates ...*Template) *Registry {
	r := &Registry{templates: map[string]*Template{}}
	for _, template := range templates {
		r.Register(template)
	}
	return r
}

// Register adds or replaces one template.
func (r *Registry) Register(template *Template) {
	if r == nil || template == nil || template.ID == "" {
		return
	}
	if _, exists := r.templates[template.ID]; !exists {
		r.order = append(r.order, template.ID)
	}
	r.templates[template.ID] = template
}

// Definition resolves a template by id, nil when unknown.
func (r *Registry) Definition(id string) *Template {
	if r == nil || id == "" {
		return nil
	}
	return r.templates[id]
}

// All returns every template in registration order.
func (r *Registry) All() []*Template {
	if r == nil {
		return nil
	}
	out := make([]*Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}
	return out
}

// ByCategory returns the templates rolling into one market category.
func (r *Registry) ByCategory(category string) []*Template {
	key := normalizeCategoryKey(category)
	var out []*Template
	for _, template := range r.All() {
		if template.Category() == key {
			out = append(out, template)
		}
	}
	return out
}

// Categories lists every category any template rolls into, sorted.
func (r *Registry) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, template := range r.All() {
		key := template.Category()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
