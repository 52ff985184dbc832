package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/pgsanitize/internal/ui"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// StageFactory connects to the store and builds the pipeline stages.
// The returned cleanup releases every resource the stages hold.
type StageFactory func(ctx context.Context) ([]sanitize.Stage, func(), error)

// SanitizeService implements the Sanitizer interface.
// Thread-Safety: NOT safe for concurrent Sanitize() calls on the same instance.
type SanitizeService struct {
	approver sanitize.Approver
	logger   sanitize.Logger
	factory  StageFactory
	newRunID func() uuid.UUID
	now      func() time.Time
}

// NewSanitizeService creates a new SanitizeService with all dependencies injected.
// Panics on nil dependencies: they are wiring mistakes, not runtime conditions.
func NewSanitizeService(approver sanitize.Approver, logger sanitize.Logger, factory StageFactory) *SanitizeService {
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if factory == nil {
		panic("factory cannot be nil")
	}
	return &SanitizeService{
		approver: approver,
		logger:   logger,
		factory:  factory,
		newRunID: uuid.New,
		now:      time.Now,
	}
}

// Sanitize asks for confirmation once, then runs the selected stages in
// pipeline order. The first stage error stops the pipeline; the returned
// Summary still holds the results gathered so far.
func (s *SanitizeService) Sanitize(ctx context.Context, cfg sanitize.RunConfig) (sanitize.Summary, error) {
	summary := sanitize.Summary{RunID: s.newRunID(), Database: cfg.DatabaseName}

	if err := cfg.Validate(); err != nil {
		return summary, fmt.Errorf("invalid configuration: %w", err)
	}
	selected, err := SelectStages(cfg.Stages)
	if err != nil {
		return summary, err
	}

	s.heading(fmt.Sprintf("pgsanitize run %s", summary.RunID))
	s.logger.Verbose("Target database: %s", cfg.DatabaseName)
	s.logger.Verbose("Selected stages: %v", selected)

	prompt := fmt.Sprintf("Sanitize database %q? %s", cfg.DatabaseName, sanitize.ConfirmationPrompt)
	approved, err := ui.Confirm(ctx, s.approver, prompt, cfg.AutoYes)
	if err != nil {
		return summary, fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return summary, sanitize.ErrConfirmationDeclined
	}

	all, cleanup, err := s.factory(ctx)
	if err != nil {
		return summary, err
	}
	defer cleanup()

	pipeline, err := pick(all, selected)
	if err != nil {
		return summary, err
	}

	runErr := s.run(ctx, pipeline, &summary)

	s.logger.Info("%s", RenderSummary(summary))

	if runErr != nil {
		return summary, runErr
	}
	if failed := summary.TotalFailed(); failed > 0 {
		return summary, fmt.Errorf("%d record(s) could not be sanitized: %w", failed, sanitize.ErrRowWrite)
	}

	s.logger.Info("✓ Sanitization completed successfully")
	return summary, nil
}

func (s *SanitizeService) run(ctx context.Context, pipeline []sanitize.Stage, summary *sanitize.Summary) error {
	for i, stage := range pipeline {
		if err := ctx.Err(); err != nil {
			markNotRun(summary, pipeline[i:])
			return err
		}

		s.heading(stage.Description())
		start := s.now()

		ready, err := stage.Ready(ctx)
		if err != nil {
			summary.Stages = append(summary.Stages, sanitize.StageResult{Name: stage.Name(), Status: sanitize.StageFailed, Err: err})
			markNotRun(summary, pipeline[i+1:])
			return fmt.Errorf("stage %s: prerequisite check failed: %w", stage.Name(), err)
		}
		if !ready {
			s.logger.Info("Skipping %s: %v", stage.Name(), sanitize.ErrPrerequisiteMissing)
			summary.Stages = append(summary.Stages, sanitize.StageResult{Name: stage.Name(), Status: sanitize.StageSkipped})
			continue
		}

		result, err := stage.Run(ctx)
		result.Name = stage.Name()
		result.Duration = s.now().Sub(start)
		if err != nil {
			result.Status = sanitize.StageFailed
			result.Err = err
			summary.Stages = append(summary.Stages, result)
			markNotRun(summary, pipeline[i+1:])
			s.logger.Error("Stage %s failed: %v", stage.Name(), err)
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}

		result.Status = sanitize.StageCompleted
		summary.Stages = append(summary.Stages, result)
		s.logger.Info("✓ %s: %d updated, %d deleted, %d failed", stage.Name(), result.Updated, result.Deleted, result.Failed)
	}
	return nil
}

func (s *SanitizeService) heading(title string) {
	if sl, ok := s.logger.(sanitize.StageLogger); ok {
		sl.Stage(title)
		return
	}
	s.logger.Info("==> %s", title)
}

func markNotRun(summary *sanitize.Summary, rest []sanitize.Stage) {
	for _, st := range rest {
		summary.Stages = append(summary.Stages, sanitize.StageResult{Name: st.Name(), Status: sanitize.StageNotRun})
	}
}

// pick returns the stages named in selected, in pipeline order.
func pick(all []sanitize.Stage, selected []string) ([]sanitize.Stage, error) {
	byName := make(map[string]sanitize.Stage, len(all))
	for _, st := range all {
		byName[st.Name()] = st
	}
	out := make([]sanitize.Stage, 0, len(selected))
	for _, name := range selected {
		st, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("stage %q is not wired: %w", name, sanitize.ErrUnknownStage)
		}
		out = append(out, st)
	}
	return out, nil
}

// Verify SanitizeService implements the Sanitizer interface at compile time
var _ sanitize.Sanitizer = (*SanitizeService)(nil)
