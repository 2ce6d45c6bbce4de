package generation

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/services"
	"reelgen/internal/task"
)

type recordingRunner struct {
	units []Unit
	err   error
}

func (r *recordingRunner) Run(_ context.Context, units []Unit) error {
	r.units = units
	return r.err
}

func newStageTask(t *testing.T, assets int) *task.Task {
	t.Helper()
	store, err := task.NewStore(t.TempDir())
	require.NoError(t, err)
	tk, err := store.Create(task.Options{Name: "Harbor Cafe", Description: "Sea views."})
	require.NoError(t, err)
	for i := 0; i < assets; i++ {
		path, err := store.AddAsset(tk, ".png")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, pngHeader, 0o644))
	}
	return tk
}

func TestStageBuildsOneUnitPerAsset(t *testing.T) {
	runner := &recordingRunner{}
	st, err := NewStage(runner, "{{.Name}} clip {{.Index}}/{{.Count}} ({{.Mode}}). {{.Description}}", nil)
	require.NoError(t, err)
	assert.Equal(t, task.StageGenerateVideo, st.Name())

	tk := newStageTask(t, 2)
	require.NoError(t, st.Execute(context.Background(), tk))
	require.Len(t, runner.units, 2)
	for i, unit := range runner.units {
		assert.Equal(t, i, unit.Index)
		assert.Equal(t, tk.InputPath(i), unit.ImagePath)
		assert.Equal(t, tk.Layout().Video(i), unit.OutputPath)
	}
	assert.Equal(t, "Harbor Cafe clip 1/2 (promo). Sea views.", runner.units[1].Prompt)
}

func TestStageRequiresAssets(t *testing.T) {
	st, err := NewStage(&recordingRunner{}, "{{.Name}}", nil)
	require.NoError(t, err)
	err = st.Execute(context.Background(), newStageTask(t, 0))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestStageRequiresInputFiles(t *testing.T) {
	runner := &recordingRunner{}
	st, err := NewStage(runner, "{{.Name}}", nil)
	require.NoError(t, err)
	tk := newStageTask(t, 1)
	require.NoError(t, os.Remove(tk.InputPath(0)))

	err = st.Execute(context.Background(), tk)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Nil(t, runner.units)
}

func TestStagePropagatesRunnerFailure(t *testing.T) {
	runner := &recordingRunner{err: &PartialFailure{Total: 1, Failed: []UnitError{{Index: 0, Err: services.ErrProvider}}}}
	st, err := NewStage(runner, "{{.Name}}", nil)
	require.NoError(t, err)
	err = st.Execute(context.Background(), newStageTask(t, 1))
	assert.ErrorIs(t, err, services.ErrPartialFailure)
}

func TestNewStageRejectsBadTemplate(t *testing.T) {
	_, err := NewStage(&recordingRunner{}, "{{.Name", nil)
	assert.ErrorIs(t, err, services.ErrConfiguration)
}
