// Package env runs one bound domain instance: fresh data, a tool registry
// and a selected task, with reward calculation wired to the validator.
// Dialogue simulation is a collaborator outside this package; callers feed
// actions in and read observations out.
package env

import (
	"fmt"

	"github.com/metalagman/verdict/internal/resolve"
	"github.com/metalagman/verdict/internal/reward"
	"github.com/metalagman/verdict/internal/state"
	"github.com/metalagman/verdict/internal/task"
)

// Response is the outcome of one step.
type Response struct {
	Observation string
	Reward      float64
	Done        bool
	RewardInfo  *reward.Result
}

// Env holds the live state of one episode.
type Env struct {
	components *resolve.Components
	validator  *reward.Validator

	data      state.Snapshot
	taskIndex int
	actions   []task.Action
}

// New binds an environment to the components and selects a task by index.
func New(components *resolve.Components, taskIndex int) (*Env, error) {
	if len(components.Tasks) == 0 {
		return nil, fmt.Errorf("environment has no tasks")
	}
	e := &Env{
		components: components,
		validator: &reward.Validator{
			Load:           components.DataLoader,
			Tools:          components.Tools,
			TerminateTools: components.TerminateTools,
		},
	}
	if err := e.Reset(taskIndex); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset reloads fresh data and switches to the given task, clearing the
// recorded trace.
func (e *Env) Reset(taskIndex int) error {
	if taskIndex < 0 || taskIndex >= len(e.components.Tasks) {
		return fmt.Errorf("task index %d out of range (have %d tasks)", taskIndex, len(e.components.Tasks))
	}
	data, err := e.components.DataLoader()
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	e.data = data
	e.taskIndex = taskIndex
	e.actions = nil
	return nil
}

// Task returns the active task.
func (e *Env) Task() task.Task { return e.components.Tasks[e.taskIndex] }

// Wiki returns the domain's background documentation.
func (e *Env) Wiki() string { return e.components.Wiki }

// Rules returns the domain's rule text.
func (e *Env) Rules() []string { return e.components.Rules }

// Actions returns the trace recorded since the last reset.
func (e *Env) Actions() []task.Action {
	out := make([]task.Action, len(e.actions))
	copy(out, e.actions)
	return out
}

// Step records the action and applies it to the live data. Respond actions
// echo their content; tool errors become error observations rather than
// aborting the episode; a terminal tool ends the episode and triggers
// reward calculation.
func (e *Env) Step(action task.Action) (Response, error) {
	e.actions = append(e.actions, action)

	resp := Response{}
	switch {
	case action.IsRespond():
		resp.Observation = action.Content()
	default:
		impl, ok := e.components.Tools.Get(action.Name)
		if !ok {
			resp.Observation = fmt.Sprintf("Unknown action %s", action.Name)
			break
		}
		obs, err := impl.Invoke(e.data, action.Kwargs)
		if err != nil {
			resp.Observation = fmt.Sprintf("Error: %v", err)
		} else {
			resp.Observation = obs
		}
		if _, terminal := e.components.TerminateTools[action.Name]; terminal {
			resp.Done = true
		}
	}

	if resp.Done {
		res, err := e.CalculateReward()
		if err != nil {
			return Response{}, err
		}
		resp.Reward = res.Reward
		resp.RewardInfo = &res
	}
	return resp, nil
}

// CalculateReward validates the recorded trace and live data against the
// active task.
func (e *Env) CalculateReward() (reward.Result, error) {
	return e.validator.Validate(e.Task(), e.actions, e.data)
}
