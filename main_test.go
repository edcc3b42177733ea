package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"runwizard/src/model"
	"runwizard/src/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "inspect", "reset", "runs", "history"}, names)

	history, _, err := root.Find([]string{"history"})
	require.NoError(t, err)
	assert.NotNil(t, history.Flags().Lookup("prune"))
	assert.NotNil(t, history.Flags().Lookup("stats"))
}

func TestInspectRequiresRun(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"inspect"})

	assert.Error(t, root.Execute())
}

func TestInspectReportsExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("STORE_KEY_PREFIX", "run:")
	t.Setenv("STORE_TTL", "10m")
	t.Setenv("STORE_JOURNAL_DIR", filepath.Join(dir, "journal"))
	t.Setenv("WIZARD_FORMS_FILE", filepath.Join(dir, "forms.yaml"))
	t.Setenv("LOG_LEVEL", "error")

	ctx := context.Background()
	store, err := storage.NewRedisStore(ctx, "redis://"+mr.Addr(), "run:", 10*time.Minute)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, storage.NewRunRepository(store).Save(ctx, model.RunState{
		RunID:       "run1",
		CalcParams:  model.FormSnapshot{"a": "1"},
		Calculated:  true,
		PlotEnabled: true,
	}))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"inspect", "run1"})
	require.NoError(t, root.Execute())

	var got inspectOutput
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "10m0s", got.ExpiresIn)
	assert.True(t, got.State.Calculated)
	assert.Equal(t, model.FormSnapshot{"a": "1"}, got.State.CalcParams)
}
