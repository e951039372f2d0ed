package conversation

// Config holds the parameters of the purchase-order flow.
type Config struct {
	CreatedBy     string `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	DefaultUomID  int64  `json:"default_uom_id,omitempty" yaml:"default_uom_id,omitempty"`
	MaxCandidates int    `json:"max_candidates,omitempty" yaml:"max_candidates,omitempty"`
}

// DefaultConfig returns the flow defaults: unit of measure 1 and at most 20
// product candidates per search.
func DefaultConfig() Config {
	return Config{
		DefaultUomID:  1,
		MaxCandidates: 20,
	}
}

// Merge overlays non-zero values from source.
func (c *Config) Merge(source *Config) {
	if source.CreatedBy != "" {
		c.CreatedBy = source.CreatedBy
	}
	if source.DefaultUomID > 0 {
		c.DefaultUomID = source.DefaultUomID
	}
	if source.MaxCandidates > 0 {
		c.MaxCandidates = source.MaxCandidates
	}
}
