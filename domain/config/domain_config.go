package config

import "time"

// DomainConfig holds configurable business rules and constraints
type DomainConfig struct {
	// Content constraints
	MaxTitleLength   int
	MinTitleLength   int
	MaxContentLength int

	// Search constraints
	DefaultRelatedLimit int
	MaxRelatedLimit     int
	MaxTitleSuggestions int
	EmbeddingDimension  int

	// Edge constraints
	AllowSelfConnections bool
	AllowDuplicateEdges  bool

	// Embedding pipeline
	EmbeddingJobMaxAttempts int
	EmbeddingJobInterval    time.Duration

	// Validation settings
	AllowEmptyContent bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxTitleLength:   200,
		MinTitleLength:   1,
		MaxContentLength: 50000,

		DefaultRelatedLimit: 5,
		MaxRelatedLimit:     50,
		MaxTitleSuggestions: 10,
		EmbeddingDimension:  1536,

		// Duplicate (source,target) pairs are allowed: auto-linking may
		// legitimately recreate an edge the user already drew.
		AllowSelfConnections: false,
		AllowDuplicateEdges:  true,

		EmbeddingJobMaxAttempts: 3,
		EmbeddingJobInterval:    5 * time.Second,

		AllowEmptyContent: false,
	}
}
