package cfg

type MockLoader struct {
	Overrides func(*Config)
}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (ml *MockLoader) Load() (*Config, error) {
	config := Defaults()

	// Tests point every upstream at httptest servers through Overrides
	if ml.Overrides != nil {
		ml.Overrides(config)
	}
	return config, nil
}
