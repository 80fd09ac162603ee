// Package reward decides whether an agent completed a scripted task. Two
// independent channels feed the verdict: the syntactic channel compares
// canonical state hashes after replaying the ground truth, the semantic
// channel checks that every expected fragment was communicated in a
// respond action.
package reward

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/metalagman/verdict/internal/canonical"
	"github.com/metalagman/verdict/internal/state"
	"github.com/metalagman/verdict/internal/task"
	"github.com/metalagman/verdict/internal/tool"
)

// Result is the validation verdict plus its diagnostic record.
type Result struct {
	// Reward is 1.0 iff both channels pass, 0.0 otherwise.
	Reward float64 `json:"reward"`
	// ActionsMatch is the syntactic channel: final state hash equals the
	// replayed ground-truth hash.
	ActionsMatch bool `json:"actions_match"`
	// Outputs maps each expected fragment to whether it was found. Empty
	// when the task declares no outputs.
	Outputs map[string]bool `json:"outputs,omitempty"`
	// GroundTruthHash is the canonical hash of the replayed state.
	GroundTruthHash string `json:"ground_truth_hash"`
	// GroundTruthActions are the task's non-respond actions, for
	// diagnostics.
	GroundTruthActions []task.Action `json:"ground_truth_actions"`
}

// Validator replays ground truth against fresh snapshots and scores agent
// runs. Each Validate call is independent; many may run concurrently as
// long as Load hands out non-aliased snapshots.
type Validator struct {
	Load           func() (state.Snapshot, error)
	Tools          *tool.Registry
	TerminateTools map[string]struct{}
}

// Validate scores one agent run: agentActions is the realized trace and
// final the snapshot the run left behind. final is never mutated. An
// internal error (loader failure, unhashable state) propagates as an error
// rather than an ambiguous pass.
func (v *Validator) Validate(t task.Task, agentActions []task.Action, final state.Snapshot) (Result, error) {
	groundTruth, err := v.replay(t.Actions)
	if err != nil {
		return Result{}, err
	}
	groundTruthHash, err := canonical.HashState(groundTruth)
	if err != nil {
		return Result{}, fmt.Errorf("hash ground-truth state: %w", err)
	}
	finalHash, err := canonical.HashState(final)
	if err != nil {
		return Result{}, fmt.Errorf("hash final state: %w", err)
	}

	actionsMatch := finalHash == groundTruthHash
	outputs, outputsPass := v.matchOutputs(t.Outputs, agentActions)

	reward := 0.0
	if actionsMatch && outputsPass {
		reward = 1.0
	}

	res := Result{
		Reward:             reward,
		ActionsMatch:       actionsMatch,
		GroundTruthHash:    groundTruthHash,
		GroundTruthActions: nonRespondActions(t.Actions),
	}
	if len(t.Outputs) > 0 {
		res.Outputs = outputs
	}
	return res, nil
}

// replay applies the ground-truth actions to a freshly loaded snapshot.
// Ground truth is assumed well formed: a tool error here is not the
// agent's fault, so it is logged and skipped; a state divergence it causes
// still surfaces as a hash mismatch.
func (v *Validator) replay(actions []task.Action) (state.Snapshot, error) {
	snap, err := v.Load()
	if err != nil {
		return nil, fmt.Errorf("load ground-truth snapshot: %w", err)
	}
	for _, action := range actions {
		v.applyAction(action, snap)
	}
	return snap, nil
}

// applyAction invokes one ground-truth action. Respond actions, terminal
// tools and unknown names contribute nothing to replayed state.
func (v *Validator) applyAction(action task.Action, snap state.Snapshot) {
	if action.IsRespond() {
		return
	}
	if _, terminal := v.TerminateTools[action.Name]; terminal {
		return
	}
	impl, ok := v.Tools.Get(action.Name)
	if !ok {
		log.Debug().Str("action", action.Name).Msg("replay: unknown tool skipped")
		return
	}
	if _, err := impl.Invoke(snap, action.Kwargs); err != nil {
		log.Debug().Err(err).Str("action", action.Name).Msg("replay: tool error ignored")
	}
}

// matchOutputs runs the semantic channel. With no expected fragments the
// channel trivially passes. Matching is case-insensitive and ignores
// commas in the agent's responses.
func (v *Validator) matchOutputs(expected []string, agentActions []task.Action) (map[string]bool, bool) {
	if len(expected) == 0 {
		return map[string]bool{}, true
	}

	var contents []string
	for _, action := range agentActions {
		if action.IsRespond() {
			contents = append(contents, normalizeContent(action.Content()))
		}
	}

	pass := true
	outputs := make(map[string]bool, len(expected))
	for _, fragment := range expected {
		needle := strings.ToLower(fragment)
		found := false
		for _, content := range contents {
			if strings.Contains(content, needle) {
				found = true
				break
			}
		}
		outputs[fragment] = found
		if !found {
			pass = false
		}
	}
	return outputs, pass
}

func normalizeContent(content string) string {
	return strings.ReplaceAll(strings.ToLower(content), ",", "")
}

func nonRespondActions(actions []task.Action) []task.Action {
	out := make([]task.Action, 0, len(actions))
	for _, action := range actions {
		if !action.IsRespond() {
			out = append(out, action)
		}
	}
	return out
}
