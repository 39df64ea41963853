package store

import (
	"encoding/json"
	"time"

	"github.com/driftworks/crew/internal/model"
)

// legacyCycle is the superseded per-cycle record shape: each cycle
// carried its own plan and a free-text judgement.
type legacyCycle struct {
	Plan struct {
		Analysis string        `json:"analysis"`
		Tasks    []*model.Task `json:"tasks"`
	} `json:"plan"`
	Judgement      string     `json:"judgement"`
	ShouldContinue bool       `json:"shouldContinue"`
	CompletedAt    *time.Time `json:"completedAt"`
}

// legacyRecord mirrors model.Run plus the legacy cycles array.
type legacyRecord struct {
	model.Run
	Cycles []legacyCycle `json:"cycles"`
}

// decodeRun parses a stored record, upgrading the legacy "cycles"
// shape when present. Migration is idempotent: a migrated record no
// longer carries a cycles field, so re-decoding it is a plain parse.
func decodeRun(data []byte) (*model.Run, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	_, hasCycles := probe["cycles"]
	_, hasTasks := probe["tasks"]
	if hasCycles && !hasTasks {
		return migrateLegacy(data)
	}

	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	fillDefaults(&run)
	return &run, nil
}

// migrateLegacy upgrades a cycles-shaped record: task lists are
// concatenated across cycles, the first non-empty analysis wins, and
// each cycle's judgement text becomes a Judgement record with
// goalComplete = !shouldContinue.
func migrateLegacy(data []byte) (*model.Run, error) {
	var rec legacyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	run := rec.Run
	run.Tasks = []*model.Task{}
	run.Judgements = []*model.Judgement{}

	for _, cycle := range rec.Cycles {
		run.Tasks = append(run.Tasks, cycle.Plan.Tasks...)
		if run.Analysis == "" && cycle.Plan.Analysis != "" {
			run.Analysis = cycle.Plan.Analysis
		}
		if cycle.Judgement == "" {
			continue
		}
		j := &model.Judgement{
			ID:           model.NewID(),
			Assessment:   cycle.Judgement,
			NewTaskIDs:   []string{},
			GoalComplete: !cycle.ShouldContinue,
			CreatedAt:    time.Now(),
		}
		if cycle.CompletedAt != nil {
			j.CreatedAt = *cycle.CompletedAt
		}
		run.Judgements = append(run.Judgements, j)
	}

	fillDefaults(&run)
	return &run, nil
}

// fillDefaults replaces nil collections with empty ones so callers
// never see a half-initialized run.
func fillDefaults(r *model.Run) {
	if r.Tasks == nil {
		r.Tasks = []*model.Task{}
	}
	if r.Judgements == nil {
		r.Judgements = []*model.Judgement{}
	}
	if r.Workers == nil {
		r.Workers = []*model.Worker{}
	}
	for _, t := range r.Tasks {
		if t.DependsOn == nil {
			t.DependsOn = []string{}
		}
	}
	for _, w := range r.Workers {
		if w.Logs == nil {
			w.Logs = []string{}
		}
		if w.Activity == nil {
			w.Activity = []model.Activity{}
		}
	}
	if r.MaxWorkers == 0 {
		r.MaxWorkers = model.DefaultMaxWorkers
	}
}
