package linkgraph

import (
	"maps"
	"slices"
)

// DefaultRootModule is the root module name used when none is configured.
const DefaultRootModule = "root"

// ModuleGraph maps targets to feature modules. Unmapped targets belong to the
// root module.
type ModuleGraph struct {
	root    string
	modules map[Target]string
}

// NewModuleGraph returns a module graph with the given root module name and
// assignments. An empty root falls back to [DefaultRootModule]; a nil
// assignment map means every target is in the root module.
func NewModuleGraph(root string, assign map[Target]string) *ModuleGraph {
	if root == "" {
		root = DefaultRootModule
	}
	return &ModuleGraph{root: root, modules: maps.Clone(assign)}
}

// Module returns the module of t.
func (m *ModuleGraph) Module(t Target) string {
	if mod, ok := m.modules[t]; ok && mod != "" {
		return mod
	}
	return m.root
}

// Root returns the root module name.
func (m *ModuleGraph) Root() string { return m.root }

// IsRoot reports whether module is the root module.
func (m *ModuleGraph) IsRoot(module string) bool { return module == m.root }

// Modules returns every module name, root first, the rest sorted.
func (m *ModuleGraph) Modules() []string {
	seen := map[string]bool{m.root: true}
	var rest []string
	for _, mod := range m.modules {
		if mod != "" && !seen[mod] {
			seen[mod] = true
			rest = append(rest, mod)
		}
	}
	slices.Sort(rest)
	return append([]string{m.root}, rest...)
}
