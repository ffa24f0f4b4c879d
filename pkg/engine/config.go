package engine

// Config controls the agentic loop.
type Config struct {
	// MaxToolIterations bounds the number of tool-executing rounds per
	// request. Zero means the default of 5.
	MaxToolIterations int

	// ArgumentOverrides are injected into the arguments of every tool
	// call after validation, replacing any value the model supplied.
	// Typically used to force parameters that the catalog policy hides
	// from the model.
	ArgumentOverrides map[string]any

	// DefaultModel is used when a request does not name a model.
	DefaultModel string
}

func (c Config) maxToolIterations() int {
	if c.MaxToolIterations > 0 {
		return c.MaxToolIterations
	}
	return 5
}
