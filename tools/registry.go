package tools

import (
	"fmt"
	"sort"

	"tara/foods"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates the food lookup tools backed by db.
func NewRegistry(db *foods.DB) *Registry {
	list := []Tool{
		NewFoodSearch(db),
		NewFoodGet(db),
		NewFoodClasses(db),
	}

	r := make(Registry, len(list))
	for _, t := range list {
		r[t.Name()] = t
	}
	return &r
}

// GetTools returns all tools sorted by name.
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
