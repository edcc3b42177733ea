package config

import (
	"errors"
	"fmt"
	"os"

	"runwizard/src/model"
	"runwizard/src/wizard"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of forms.yaml
type YAMLConfig struct {
	Forms struct {
		Calc string `yaml:"calc"`
		Plot string `yaml:"plot"`
		Next string `yaml:"next"`
		Back string `yaml:"back"`
	} `yaml:"forms"`
	TokenField         string `yaml:"token_field"`
	InitialPlotEnabled *bool  `yaml:"initial_plot_enabled"`
}

// LoadConfig loads configuration from the forms file. A missing file yields
// an empty config so the environment defaults apply.
func LoadConfig(filepath string) (*YAMLConfig, error) {
	data, err := os.ReadFile(filepath)
	if errors.Is(err, os.ErrNotExist) {
		return &YAMLConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config YAMLConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	return &config, nil
}

// BuildFormSet creates the form wiring from the environment, with values
// from the YAML file taking precedence
func BuildFormSet(yamlConfig *YAMLConfig, env model.WizardConfig) wizard.FormSet {
	forms := wizard.FormSet{
		Calc:       pick(yamlConfig.Forms.Calc, env.CalcFormID),
		Plot:       pick(yamlConfig.Forms.Plot, env.PlotFormID),
		Next:       pick(yamlConfig.Forms.Next, env.NextFormID),
		Back:       pick(yamlConfig.Forms.Back, env.BackFormID),
		TokenField: pick(yamlConfig.TokenField, env.TokenField),
	}
	defaults := wizard.DefaultFormSet()
	forms.Calc = pick(forms.Calc, defaults.Calc)
	forms.Plot = pick(forms.Plot, defaults.Plot)
	forms.Next = pick(forms.Next, defaults.Next)
	forms.Back = pick(forms.Back, defaults.Back)
	forms.TokenField = pick(forms.TokenField, defaults.TokenField)
	return forms
}

// BuildOptions creates the machine options
func BuildOptions(yamlConfig *YAMLConfig, env model.WizardConfig) wizard.Options {
	opts := wizard.Options{InitialPlotEnabled: env.InitialPlotEnabled}
	if yamlConfig.InitialPlotEnabled != nil {
		opts.InitialPlotEnabled = *yamlConfig.InitialPlotEnabled
	}
	return opts
}

// Validate rejects form wirings where two roles share a control id
func Validate(forms wizard.FormSet) error {
	seen := map[string]string{}
	for role, id := range map[string]string{
		"calc": forms.Calc,
		"plot": forms.Plot,
		"next": forms.Next,
		"back": forms.Back,
	} {
		if other, dup := seen[id]; dup {
			return fmt.Errorf("forms %s and %s share control id %q", other, role, id)
		}
		seen[id] = role
	}
	return nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
