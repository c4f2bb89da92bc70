package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sigil/internal/interp"
)

// TraceSnapshot captures the deterministic trace of one scenario run.
// Wall-clock elapsed time is deliberately excluded; everything else is
// derived from pinned inputs.
type TraceSnapshot struct {
	ScenarioName string            `json:"scenario_name"`
	GenesisValid bool              `json:"genesis_valid"`
	Iterations   int               `json:"iterations"`
	Proofs       map[string]string `json:"proofs,omitempty"`
	Outputs      []map[string]any  `json:"outputs"`
	Logs         []string          `json:"logs"`
	Result       any               `json:"result"`
	Memory       any               `json:"memory"`
	Error        string            `json:"error,omitempty"`
}

// Snapshot condenses a Result into its golden-comparable form.
func Snapshot(sc *Scenario, res *Result) TraceSnapshot {
	snap := TraceSnapshot{
		ScenarioName: sc.Name,
		GenesisValid: res.Run.GenesisValid,
		Iterations:   res.Run.Iterations,
		Outputs:      make([]map[string]any, 0, len(res.Run.Outputs)),
		Logs:         res.Run.Logs,
		Result:       interp.ToJSONValue(res.Run.Value),
		Memory:       interp.ToJSONValue(res.Run.Memory),
	}
	if snap.Logs == nil {
		snap.Logs = []string{}
	}

	for _, ev := range res.Run.Outputs {
		event := map[string]any{
			"id":   ev.ID,
			"type": ev.Type,
			"seq":  ev.Seq,
		}
		if ev.Signal != "" {
			event["signal"] = ev.Signal
		}
		if ev.Agent != "" {
			event["agent"] = ev.Agent
		}
		if ev.Task != "" {
			event["task"] = ev.Task
		}
		if ev.Data != nil {
			event["data"] = ev.Data
		}
		snap.Outputs = append(snap.Outputs, event)
	}

	if res.Report != nil {
		snap.Proofs = make(map[string]string, len(res.Report.Proofs))
		for _, p := range res.Report.Proofs {
			snap.Proofs[p.Property] = string(p.Status)
		}
	}
	if res.RunErr != nil {
		snap.Error = res.RunErr.Error()
	}
	return snap
}

// RunWithGolden executes a scenario and compares the trace snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) error {
	t.Helper()

	res, err := Run(sc)
	if err != nil {
		return err
	}

	snap := Snapshot(sc, res)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, append(data, '\n'))

	return nil
}
