// Package config loads the trainlog-report configuration.
//
// Values come from a config.yml file, then a .env file, then environment
// variables prefixed with TRAINLOG_ (e.g. TRAINLOG_INPUT_PATTERN overrides
// input.pattern). Later sources win.
//
//	var cfg config.ReportConfig
//	if err := config.LoadConfig("trainlog-report", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
