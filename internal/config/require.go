package config

// Require loads the configuration, applies command-line overrides and checks
// that an API key is present. Commands call it before doing any work.
func Require(model, endpoint string) (*Config, error) {
	cfg, err := Load(Options{})
	if err != nil {
		return nil, err
	}
	cfg.Override(model, endpoint)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Override replaces the model and endpoint when the given values are non-empty.
func (c *Config) Override(model, endpoint string) {
	if model != "" {
		c.Model = model
	}
	if endpoint != "" {
		c.Endpoint = endpoint
	}
}
