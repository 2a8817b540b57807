package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// Record is the product of one pipeline run over one entity: the flattened
// column values of every succeeded module plus a per-module outcome log.
type Record struct {
	Entity types.EntityKey
	// Values holds every succeeded module's columns merged into one flat
	// mapping. Columns of failed or skipped modules are absent, not nil.
	Values ColumnValues
	// Outcomes lists the terminal state of every module, in execution order.
	Outcomes []Outcome
	// Aborted is set when a critical module failed and the remainder of the
	// run was skipped.
	Aborted bool
}

// Outcome returns the outcome of one module, if it was part of the run.
func (r *Record) Outcome(moduleID string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.ModuleID == moduleID {
			return o, true
		}
	}
	return Outcome{}, false
}

// Valid reports whether the record is usable downstream: the run was not
// aborted by a critical module failure.
func (r *Record) Valid() bool {
	return !r.Aborted
}

// Counts returns the number of succeeded, failed, and skipped modules.
func (r *Record) Counts() (succeeded, failed, skipped int) {
	for _, o := range r.Outcomes {
		switch o.State {
		case StateSucceeded:
			succeeded++
		case StateFailed:
			failed++
		case StateSkipped:
			skipped++
		}
	}
	return
}

// Executor runs an ordered module list against one entity. Execution is
// sequential: later modules may consume earlier modules' outputs and outcome
// gating requires knowing predecessor status before a successor starts.
type Executor struct{}

// NewExecutor creates a pipeline executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Run executes the ordered modules for one entity. It never returns an
// error: failures are recorded per module, and only a critical module's
// failure cuts the run short (remaining modules are Skipped). The caller
// inspects Record.Valid and the outcome log.
func (e *Executor) Run(ctx context.Context, entity types.EntityKey, ordered []Module) *Record {
	ctx = logging.WithEntity(ctx, entity.String())
	log := logging.Ctx(ctx)

	record := &Record{
		Entity:   entity,
		Values:   make(ColumnValues),
		Outcomes: make([]Outcome, 0, len(ordered)),
	}
	succeeded := make(map[string]ColumnValues, len(ordered))
	terminal := make(map[string]State, len(ordered))
	abortedBy := ""

	for _, mod := range ordered {
		desc := mod.Descriptor()

		if abortedBy != "" {
			outcome := Outcome{
				ModuleID: desc.ID,
				State:    StateSkipped,
				Reason:   fmt.Sprintf("run aborted by critical module %s", abortedBy),
			}
			terminal[desc.ID] = StateSkipped
			record.Outcomes = append(record.Outcomes, outcome)
			continue
		}

		if blocker := firstIncompleteDep(desc, terminal); blocker != "" {
			outcome := Outcome{
				ModuleID: desc.ID,
				State:    StateSkipped,
				Reason:   "blocked by " + blocker,
			}
			terminal[desc.ID] = StateSkipped
			record.Outcomes = append(record.Outcomes, outcome)
			log.Debug().Str("module", desc.ID).Str("blocked_by", blocker).Msg("Module skipped")
			continue
		}

		prior := make(Results, len(desc.Dependencies))
		for _, dep := range desc.Dependencies {
			prior[dep] = succeeded[dep]
		}

		start := time.Now()
		values, err := runModule(ctx, mod, entity, prior)
		elapsed := time.Since(start)

		if err == nil {
			err = checkShape(desc, values)
		}

		if err != nil {
			modErr := errors.NewModuleError(desc.ID, entity.String(), desc.Critical, err)
			outcome := Outcome{
				ModuleID: desc.ID,
				State:    StateFailed,
				Reason:   err.Error(),
				Err:      modErr,
				Duration: elapsed,
			}
			terminal[desc.ID] = StateFailed
			record.Outcomes = append(record.Outcomes, outcome)
			log.Warn().Err(err).Str("module", desc.ID).Bool("critical", desc.Critical).Msg("Module failed")

			if desc.Critical {
				abortedBy = desc.ID
				record.Aborted = true
			}
			continue
		}

		succeeded[desc.ID] = values
		terminal[desc.ID] = StateSucceeded
		for id, v := range values {
			record.Values[id] = v
		}
		record.Outcomes = append(record.Outcomes, Outcome{
			ModuleID: desc.ID,
			State:    StateSucceeded,
			Duration: elapsed,
		})
		log.Debug().Str("module", desc.ID).Dur("took", elapsed).Msg("Module succeeded")
	}

	return record
}

// runModule invokes a module, converting a panic into an error so one
// misbehaving module cannot take down the run.
func runModule(ctx context.Context, mod Module, entity types.EntityKey, prior Results) (values ColumnValues, err error) {
	defer func() {
		if r := recover(); r != nil {
			values = nil
			err = fmt.Errorf("module panicked: %v", r)
		}
	}()
	return mod.Run(ctx, entity, prior)
}

// firstIncompleteDep returns the first declared dependency (declaration
// order) that did not succeed, or "" when all dependencies are satisfied.
func firstIncompleteDep(desc Descriptor, terminal map[string]State) string {
	for _, dep := range desc.Dependencies {
		if terminal[dep] != StateSucceeded {
			return dep
		}
	}
	return ""
}

// checkShape verifies a run's output keys are exactly the declared columns.
func checkShape(desc Descriptor, values ColumnValues) error {
	declared := make(map[string]bool, len(desc.Columns))
	for _, col := range desc.Columns {
		declared[col.ID] = true
		if _, ok := values[col.ID]; !ok {
			return errors.NewContractError(desc.ID, fmt.Sprintf("output missing declared columnId %s", col.ID))
		}
	}
	for id := range values {
		if !declared[id] {
			return errors.NewContractError(desc.ID, fmt.Sprintf("output has undeclared columnId %s", id))
		}
	}
	return nil
}
