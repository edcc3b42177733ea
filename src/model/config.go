package model

import "time"

// ----------------------------------------------------
// ================ Config ================
// LogConfig holds configuration for the global logger
type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Format     string `envconfig:"LOG_FORMAT" default:"json" yaml:"format"` // json, console
	Output     string `envconfig:"LOG_OUTPUT" default:"stdout" yaml:"output"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"rfc3339" yaml:"time_format"`
	FilePath   string `envconfig:"LOG_FILE_PATH" default:"logs/runwizard.log" yaml:"file_path"`
}

// StoreConfig selects and tunes the session store
type StoreConfig struct {
	RedisURL   string        `envconfig:"REDIS_URL"`
	KeyPrefix  string        `envconfig:"STORE_KEY_PREFIX" default:"run:"`
	TTL        time.Duration `envconfig:"STORE_TTL" default:"60m"`
	JournalDir string        `envconfig:"STORE_JOURNAL_DIR" default:"data/journal"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Addr            string        `envconfig:"SERVER_ADDR" default:"127.0.0.1:8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// WizardConfig holds the form wiring of the calc/plot wizard
type WizardConfig struct {
	FormsFile          string `envconfig:"WIZARD_FORMS_FILE" default:"forms.yaml"`
	CalcFormID         string `envconfig:"WIZARD_CALC_FORM_ID" default:"calc_form"`
	PlotFormID         string `envconfig:"WIZARD_PLOT_FORM_ID" default:"plot_form"`
	NextFormID         string `envconfig:"WIZARD_NEXT_FORM_ID" default:"next_form"`
	BackFormID         string `envconfig:"WIZARD_BACK_FORM_ID" default:"back_form"`
	TokenField         string `envconfig:"WIZARD_TOKEN_FIELD" default:"csrfmiddlewaretoken"`
	InitialPlotEnabled bool   `envconfig:"WIZARD_INITIAL_PLOT_ENABLED" default:"false"`
}
