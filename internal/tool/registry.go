package tool

import (
	"mediaforge/internal/config"
	"sort"
)

// Registry 持有已注册的工具，在启动时构造后注入各层使用。
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds the default registry from config.
func NewRegistry(cfg config.Config) *Registry {
	r := NewEmptyRegistry()
	r.Register(NewFluxSchnell(cfg.ReplicateAPIToken))
	r.Register(NewVeo3FastPreview(cfg.GeminiAPIToken))
	r.Register(NewAnimalsCaughtOnCamera(cfg.APICoreToken))
	return r
}

// NewEmptyRegistry creates a registry with no handlers registered.
func NewEmptyRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler keyed by its name. Later registrations win.
func (r *Registry) Register(h Handler) {
	if r == nil || h == nil {
		return
	}
	r.handlers[h.Name()] = h
}

// Get looks up a handler by tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered tool names in stable order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
