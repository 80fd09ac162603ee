// Package domain defines declarative descriptors for simulated business
// domains and the registry that discovers and stores them.
package domain

// ToolRef points at one tool implementation by symbolic location.
type ToolRef struct {
	Name        string `json:"name"                  yaml:"name"                  mapstructure:"name"`
	ModulePath  string `json:"module_path"           yaml:"module_path"           mapstructure:"module_path"`
	ClassName   string `json:"class_name"            yaml:"class_name"            mapstructure:"class_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// SymbolRef is the full symbolic path of the referenced implementation.
func (t ToolRef) SymbolRef() string {
	return t.ModulePath + "." + t.ClassName
}

// Descriptor is the declarative metadata for one domain: where its data
// loader, tools, task lists and documentation live. Immutable once
// registered.
type Descriptor struct {
	Name        string `json:"name"         yaml:"name"         mapstructure:"name"`
	DisplayName string `json:"display_name" yaml:"display_name" mapstructure:"display_name"`
	Description string `json:"description"  yaml:"description"  mapstructure:"description"`
	Version     string `json:"version"      yaml:"version"      mapstructure:"version"`

	DataLoader string `json:"data_loader" yaml:"data_loader" mapstructure:"data_loader"`
	WikiFile   string `json:"wiki_file"   yaml:"wiki_file"   mapstructure:"wiki_file"`
	RulesFile  string `json:"rules_file"  yaml:"rules_file"  mapstructure:"rules_file"`

	Tools      []ToolRef         `json:"tools"       yaml:"tools"       mapstructure:"tools"`
	TaskSplits map[string]string `json:"task_splits" yaml:"task_splits" mapstructure:"task_splits"`

	TerminateTools []string       `json:"terminate_tools,omitempty" yaml:"terminate_tools,omitempty" mapstructure:"terminate_tools"`
	Settings       map[string]any `json:"settings,omitempty"        yaml:"settings,omitempty"        mapstructure:"settings"`
}

// DefaultVersion is assumed when a descriptor document omits version.
const DefaultVersion = "1.0.0"

// Splits returns the declared split names, unordered.
func (d *Descriptor) Splits() []string {
	out := make([]string, 0, len(d.TaskSplits))
	for name := range d.TaskSplits {
		out = append(out, name)
	}
	return out
}
