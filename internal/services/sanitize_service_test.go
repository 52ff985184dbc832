package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgsanitize/internal/stages"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

var errBoom = errors.New("boom")

func fullPipeline(runs *[]string) []sanitize.Stage {
	out := make([]sanitize.Stage, 0, len(stages.Order))
	for _, name := range stages.Order {
		out = append(out, &fakeStage{name: name, ready: true, runs: runs, result: sanitize.StageResult{Updated: 1}})
	}
	return out
}

func TestNewSanitizeService_PanicsOnNil(t *testing.T) {
	factory := func(context.Context) ([]sanitize.Stage, func(), error) { return nil, func() {}, nil }

	assert.Panics(t, func() { NewSanitizeService(nil, &mockLogger{}, factory) })
	assert.Panics(t, func() { NewSanitizeService(&mockApprover{}, nil, factory) })
	assert.Panics(t, func() { NewSanitizeService(&mockApprover{}, &mockLogger{}, nil) })
}

func TestSanitize_RunsStagesInPipelineOrder(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	approver := &mockApprover{approved: true}
	logger := &mockLogger{}
	svc := NewSanitizeService(approver, logger, staticFactory(fullPipeline(&runs), &calls, &cleaned))

	summary, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	require.NoError(t, err)

	assert.Equal(t, stages.Order, runs)
	assert.Equal(t, 1, approver.calls)
	assert.Contains(t, approver.prompt, `"shop"`)
	assert.Contains(t, approver.prompt, sanitize.ConfirmationPrompt)
	assert.True(t, cleaned, "factory cleanup must run")
	assert.NotEqual(t, uuid.Nil, summary.RunID)
	assert.Len(t, summary.Stages, len(stages.Order))
	for _, st := range summary.Stages {
		assert.Equal(t, sanitize.StageCompleted, st.Status, st.Name)
	}
	assert.True(t, logger.contains("Summary for run"))
	assert.Contains(t, logger.stages[0], summary.RunID.String())
}

func TestSanitize_SelectedStagesKeepPipelineOrder(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	svc := NewSanitizeService(&mockApprover{approved: true}, &mockLogger{}, staticFactory(fullPipeline(&runs), &calls, &cleaned))

	_, err := svc.Sanitize(context.Background(), sanitize.RunConfig{
		DatabaseName: "shop",
		Stages:       []string{stages.NameUsers, stages.NameTransients},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{stages.NameTransients, stages.NameUsers}, runs)
}

func TestSanitize_DeclinedDoesNotConnect(t *testing.T) {
	var calls int
	var cleaned bool
	svc := NewSanitizeService(&mockApprover{approved: false}, &mockLogger{}, staticFactory(nil, &calls, &cleaned))

	_, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	assert.ErrorIs(t, err, sanitize.ErrConfirmationDeclined)
	assert.Equal(t, sanitize.ExitConfirmationDeclined, sanitize.ExitCodeForError(err))
	assert.Zero(t, calls)
}

func TestSanitize_AutoYesSkipsApprover(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	approver := &mockApprover{approved: false}
	svc := NewSanitizeService(approver, &mockLogger{}, staticFactory(fullPipeline(&runs), &calls, &cleaned))

	_, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop", AutoYes: true})
	require.NoError(t, err)
	assert.Zero(t, approver.calls)
	assert.Len(t, runs, len(stages.Order))
}

func TestSanitize_ApproverError(t *testing.T) {
	var calls int
	var cleaned bool
	svc := NewSanitizeService(&mockApprover{err: context.Canceled}, &mockLogger{}, staticFactory(nil, &calls, &cleaned))

	_, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestSanitize_InvalidConfig(t *testing.T) {
	var calls int
	var cleaned bool
	approver := &mockApprover{approved: true}
	svc := NewSanitizeService(approver, &mockLogger{}, staticFactory(nil, &calls, &cleaned))

	tests := []struct {
		name string
		cfg  sanitize.RunConfig
		want error
	}{
		{"missing database", sanitize.RunConfig{}, sanitize.ErrInvalidConfig},
		{"duplicate stage", sanitize.RunConfig{DatabaseName: "shop", Stages: []string{"users", "users"}}, sanitize.ErrInvalidConfig},
		{"unknown stage", sanitize.RunConfig{DatabaseName: "shop", Stages: []string{"orders"}}, sanitize.ErrUnknownStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Sanitize(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, sanitize.ExitConfigError, sanitize.ExitCodeForError(err))
		})
	}
	assert.Zero(t, approver.calls, "validation happens before confirmation")
	assert.Zero(t, calls)
}

func TestSanitize_FactoryError(t *testing.T) {
	factory := func(context.Context) ([]sanitize.Stage, func(), error) {
		return nil, nil, sanitize.ErrConnectionFailed
	}
	svc := NewSanitizeService(&mockApprover{approved: true}, &mockLogger{}, factory)

	_, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	assert.ErrorIs(t, err, sanitize.ErrConnectionFailed)
}

func TestSanitize_SkipsStageWithMissingPrerequisite(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	pipeline := fullPipeline(&runs)
	pipeline[3].(*fakeStage).ready = false
	logger := &mockLogger{}
	svc := NewSanitizeService(&mockApprover{approved: true}, logger, staticFactory(pipeline, &calls, &cleaned))

	summary, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	require.NoError(t, err)

	assert.NotContains(t, runs, stages.NameGravityForms)
	assert.Contains(t, runs, stages.NameWooCommerce)
	forms, ok := summary.Stage(stages.NameGravityForms)
	require.True(t, ok)
	assert.Equal(t, sanitize.StageSkipped, forms.Status)
	assert.True(t, logger.contains(sanitize.ErrPrerequisiteMissing.Error()))
}

func TestSanitize_StageFailureStopsPipeline(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	pipeline := fullPipeline(&runs)
	pipeline[1].(*fakeStage).runErr = errors.Join(sanitize.ErrBulkOperation, errBoom)
	svc := NewSanitizeService(&mockApprover{approved: true}, &mockLogger{}, staticFactory(pipeline, &calls, &cleaned))

	summary, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sanitize.ErrBulkOperation)
	assert.Equal(t, sanitize.ExitBulkOperationFailed, sanitize.ExitCodeForError(err))
	assert.Contains(t, err.Error(), "stage comments")

	assert.Equal(t, []string{stages.NameTransients, stages.NameComments}, runs)
	require.Len(t, summary.Stages, len(stages.Order))
	assert.Equal(t, sanitize.StageCompleted, summary.Stages[0].Status)
	assert.Equal(t, sanitize.StageFailed, summary.Stages[1].Status)
	for _, st := range summary.Stages[2:] {
		assert.Equal(t, sanitize.StageNotRun, st.Status, st.Name)
	}
	assert.True(t, cleaned)
}

func TestSanitize_ReadyErrorStopsPipeline(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	pipeline := fullPipeline(&runs)
	pipeline[4].(*fakeStage).readyErr = errBoom
	svc := NewSanitizeService(&mockApprover{approved: true}, &mockLogger{}, staticFactory(pipeline, &calls, &cleaned))

	summary, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	assert.ErrorIs(t, err, errBoom)
	st, _ := summary.Stage(stages.NameWooCommerce)
	assert.Equal(t, sanitize.StageFailed, st.Status)
}

func TestSanitize_RowFailuresReportedAfterAllStages(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	pipeline := fullPipeline(&runs)
	pipeline[2].(*fakeStage).result = sanitize.StageResult{Updated: 5, Failed: 2}
	svc := NewSanitizeService(&mockApprover{approved: true}, &mockLogger{}, staticFactory(pipeline, &calls, &cleaned))

	summary, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	assert.ErrorIs(t, err, sanitize.ErrRowWrite)
	assert.Equal(t, sanitize.ExitRowWritesFailed, sanitize.ExitCodeForError(err))
	assert.Len(t, runs, len(stages.Order), "row failures do not stop the pipeline")
	assert.Equal(t, int64(2), summary.TotalFailed())
}

func TestSanitize_CancelledBetweenStages(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline := fullPipeline(&runs)
	pipeline[0].(*fakeStage).onRun = cancel
	svc := NewSanitizeService(&mockApprover{approved: true}, &mockLogger{}, staticFactory(pipeline, &calls, &cleaned))

	summary, err := svc.Sanitize(ctx, sanitize.RunConfig{DatabaseName: "shop"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{stages.NameTransients}, runs)
	st, _ := summary.Stage(stages.NameComments)
	assert.Equal(t, sanitize.StageNotRun, st.Status)
}

func TestSanitize_UnwiredStage(t *testing.T) {
	var runs []string
	var calls int
	var cleaned bool
	pipeline := fullPipeline(&runs)[:2]
	svc := NewSanitizeService(&mockApprover{approved: true}, &mockLogger{}, staticFactory(pipeline, &calls, &cleaned))

	_, err := svc.Sanitize(context.Background(), sanitize.RunConfig{DatabaseName: "shop"})
	assert.ErrorIs(t, err, sanitize.ErrUnknownStage)
	assert.Empty(t, runs)
	assert.True(t, cleaned)
}
