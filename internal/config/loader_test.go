package config

import (
	"os"
	"path/filepath"
	"testing"

	"runwizard/src/model"
	"runwizard/src/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, `
forms:
  calc: calculate_form
  plot: plot_parameters
token_field: csrf
initial_plot_enabled: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	forms := BuildFormSet(cfg, model.WizardConfig{NextFormID: "go_next"})
	assert.Equal(t, wizard.FormSet{
		Calc:       "calculate_form",
		Plot:       "plot_parameters",
		Next:       "go_next",
		Back:       "back_form",
		TokenField: "csrf",
	}, forms)
	assert.True(t, BuildOptions(cfg, model.WizardConfig{}).InitialPlotEnabled)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, wizard.DefaultFormSet(), BuildFormSet(cfg, model.WizardConfig{}))
	assert.False(t, BuildOptions(cfg, model.WizardConfig{}).InitialPlotEnabled)
	assert.True(t, BuildOptions(cfg, model.WizardConfig{InitialPlotEnabled: true}).InitialPlotEnabled)
}

func TestLoadConfigExplicitFalseOverridesEnv(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "initial_plot_enabled: false\n"))
	require.NoError(t, err)

	assert.False(t, BuildOptions(cfg, model.WizardConfig{InitialPlotEnabled: true}).InitialPlotEnabled)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "forms: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(wizard.DefaultFormSet()))

	forms := wizard.DefaultFormSet()
	forms.Back = forms.Next
	assert.Error(t, Validate(forms))
}
