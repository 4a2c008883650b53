package schema

// Tier is one threshold row of a scoring leg.
type Tier struct {
	When   string `json:"when"`
	Points int    `json:"points"`
}

// Leg is one input of a bucket with its threshold table.
type Leg struct {
	Metric MetricKey `json:"metric"`
	Tiers  []Tier    `json:"tiers"`
	Flag   string    `json:"flag,omitempty"`
}

// BucketDefinition describes how one bucket is scored.
type BucketDefinition struct {
	Name    string `json:"name"`
	Max     int    `json:"max"`
	Purpose string `json:"purpose"`
	Start   int    `json:"start,omitempty"`
	Legs    []Leg  `json:"legs"`
}

// MetricsRenderModel contains all processed data needed for displaying scoring definitions.
type MetricsRenderModel struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Buckets     []BucketDefinition `json:"buckets"`
	Ratings     RatingBands        `json:"ratings"`
	Glossary    map[string]string  `json:"glossary"`
}
