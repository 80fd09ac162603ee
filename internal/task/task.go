// Package task defines scripted scenarios: an instruction, a ground-truth
// action sequence and the response fragments the agent is expected to
// communicate.
package task

// RespondActionName is the reserved action name for messages addressed to
// the user rather than to a tool.
const RespondActionName = "respond"

// Action is a single tool invocation or user response in a trace.
type Action struct {
	Name   string         `json:"name"              yaml:"name"              mapstructure:"name"`
	Kwargs map[string]any `json:"kwargs,omitempty"  yaml:"kwargs,omitempty"  mapstructure:"kwargs"`
}

// IsRespond reports whether the action addresses the user.
func (a Action) IsRespond() bool { return a.Name == RespondActionName }

// Content returns the text of a respond action, empty for anything else.
func (a Action) Content() string {
	if !a.IsRespond() {
		return ""
	}
	s, _ := a.Kwargs["content"].(string)
	return s
}

// Task is one scripted scenario. Immutable once loaded.
type Task struct {
	UserID      string   `json:"user_id"           yaml:"user_id"           mapstructure:"user_id"`
	Instruction string   `json:"instruction"       yaml:"instruction"       mapstructure:"instruction"`
	Actions     []Action `json:"actions"           yaml:"actions"           mapstructure:"actions"`
	Outputs     []string `json:"outputs,omitempty" yaml:"outputs,omitempty" mapstructure:"outputs"`
}
