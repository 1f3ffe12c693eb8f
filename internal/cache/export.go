package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	"golang.org/x/sync/errgroup"
)

// ExportStep is one stage of a bulk export. Steps run strictly in order.
type ExportStep struct {
	// Name identifies the step in logs, errors and the export marker.
	Name string
	// Owns reports whether a key is written by this step.
	Owns func(key string) bool
	// Run fetches and stores the step's datasets.
	Run func(ctx context.Context, m *Manager) error
}

// DatasetStep returns a step that refreshes a single dataset.
func DatasetStep[T Record](name string, ds Dataset[T]) ExportStep {
	return ExportStep{
		Name: name,
		Owns: func(key string) bool { return key == ds.Key },
		Run: func(ctx context.Context, m *Manager) error {
			_, err := fetchAndStore(ctx, m, ds)
			return err
		},
	}
}

// FanOutStep returns a step that refreshes every dataset produced by list,
// at most Config.ExportConcurrency at a time. Every key of those datasets
// must start with prefix. The first failure cancels the remaining fetches.
func FanOutStep[T Record](name, prefix string, list func(ctx context.Context, m *Manager) ([]Dataset[T], error)) ExportStep {
	return ExportStep{
		Name: name,
		Owns: func(key string) bool { return strings.HasPrefix(key, prefix) },
		Run: func(ctx context.Context, m *Manager) error {
			datasets, err := list(ctx, m)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(m.config.ExportConcurrency)
			for _, ds := range datasets {
				g.Go(func() error {
					_, err := fetchAndStore(gctx, m, ds)
					return err
				})
			}
			return g.Wait()
		},
	}
}

// Export refreshes every step's datasets in order, overwriting existing
// entries. Only one export runs at a time per Manager.
//
// If step k fails or ctx is cancelled before it starts, the export stops,
// entries written by steps after k are removed, and the returned error has
// CodeExportAborted with the failing step in its context. Entries from
// steps before k stay in place and usable.
func (m *Manager) Export(ctx context.Context, steps []ExportStep) error {
	if !m.config.Enabled {
		return errors.New(errors.CodeInvalidConfig, "bulk export requires an enabled cache")
	}

	m.exportMu.Lock()
	defer m.exportMu.Unlock()

	logger := m.logger.WithOperation("export")
	state := ExportState{State: ExportInProgress, StartedAt: m.now()}
	if err := m.writeExportState(ctx, state); err != nil {
		return err
	}
	logger.Info(ctx, "export started", "steps", len(steps))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return m.abortExport(ctx, steps, i, state, err)
		}

		start := time.Now()
		logger.Info(ctx, "export step started", "step", step.Name, "index", i+1)
		if err := step.Run(ctx, m); err != nil {
			return m.abortExport(ctx, steps, i, state, err)
		}
		logger.Info(ctx, "export step finished",
			"step", step.Name,
			"index", i+1,
			"duration_ms", time.Since(start).Milliseconds())
		state.CompletedSteps = append(state.CompletedSteps, step.Name)
	}

	state.State = ExportComplete
	state.FinishedAt = m.now()
	if err := m.writeExportState(ctx, state); err != nil {
		m.metrics.RecordExport(err)
		return err
	}
	m.metrics.RecordExport(nil)
	logger.Info(ctx, "export complete", "steps", len(steps))
	return nil
}

func (m *Manager) abortExport(ctx context.Context, steps []ExportStep, failed int, state ExportState, cause error) error {
	logger := m.logger.WithOperation("export")
	step := steps[failed]

	// Cleanup must run even when ctx is what stopped the export.
	cleanupCtx := context.WithoutCancel(ctx)
	if err := m.purgeSteps(cleanupCtx, steps[failed+1:]); err != nil {
		logger.Error(ctx, "failed to remove entries of later export steps", "error", err.Error())
	}

	state.State = ExportIncomplete
	state.FailedStep = step.Name
	state.FinishedAt = m.now()
	if err := m.writeExportState(cleanupCtx, state); err != nil {
		logger.Error(ctx, "failed to record export state", "error", err.Error())
	}

	err := errors.WrapWithContext(cause, CodeExportAborted,
		fmt.Sprintf("export aborted at step %d (%s)", failed+1, step.Name),
		map[string]interface{}{
			"step":            step.Name,
			"step_index":      failed + 1,
			"completed_steps": append([]string(nil), state.CompletedSteps...),
		})
	m.metrics.RecordExport(err)
	logger.Error(ctx, "export aborted",
		"step", step.Name,
		"index", failed+1,
		"error", cause.Error())
	return err
}

// purgeSteps deletes every stored key owned by one of steps.
func (m *Manager) purgeSteps(ctx context.Context, steps []ExportStep) error {
	if len(steps) == 0 {
		return nil
	}

	statuses, err := m.store.List(ctx)
	if err != nil {
		return err
	}

	var keys []string
	for _, st := range statuses {
		for _, step := range steps {
			if step.Owns != nil && step.Owns(st.Key) {
				keys = append(keys, st.Key)
				break
			}
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return m.store.Delete(ctx, keys...)
}

func (m *Manager) writeExportState(ctx context.Context, state ExportState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode export state")
	}
	return m.store.Write(ctx, &Entry{
		Key:       keyExport,
		Payload:   payload,
		Count:     len(state.CompletedSteps),
		FetchedAt: m.now(),
	})
}

// exportState reads the export marker. An unreadable marker is reported as
// incomplete since nothing proves the export finished.
func (m *Manager) exportState(ctx context.Context) (ExportState, error) {
	entry, err := m.store.Read(ctx, keyExport)
	switch {
	case err == nil:
	case IsNotFound(err):
		return ExportState{State: ExportNone}, nil
	case IsCorrupt(err):
		m.recordCorrupt(ctx, keyExport, err)
		return ExportState{State: ExportIncomplete}, nil
	default:
		return ExportState{}, err
	}

	var state ExportState
	if err := json.Unmarshal(entry.Payload, &state); err != nil {
		m.recordCorrupt(ctx, keyExport, err)
		return ExportState{State: ExportIncomplete}, nil
	}
	return state, nil
}
