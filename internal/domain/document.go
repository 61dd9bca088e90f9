package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChunkMetadata carries the indexed attributes of a legal text chunk.
// Fields map 1:1 to the JSONB metadata column of the vector index, so the
// json tags double as filterable field names.
type ChunkMetadata struct {
	Title           string `json:"title,omitempty"`
	LawName         string `json:"law_name,omitempty"`
	Theme           string `json:"theme,omitempty"`
	LegislationDate string `json:"legislation_date,omitempty"` // calendar year, e.g. "2023"
	Region          string `json:"region,omitempty"`
	URL             string `json:"url,omitempty"`
	Epigrafe        string `json:"epigrafe,omitempty"`
	Chapter         string `json:"chapter,omitempty"`
}

// DocumentChunk is one indexed piece of a legal document.
// Immutable once indexed; upserting the same ID replaces it wholesale.
type DocumentChunk struct {
	ID        uuid.UUID
	Text      string
	Metadata  ChunkMetadata
	Dense     []float32
	Sparse    map[int32]float32
	CreatedAt time.Time
}

// QueryFilter is an exact-match conjunction over indexed metadata fields.
// Empty fields are unconstrained; the zero value matches everything.
type QueryFilter struct {
	Theme           string
	LegislationDate string
	Region          string
}

// IsEmpty reports whether the filter constrains nothing.
func (f QueryFilter) IsEmpty() bool {
	return f.Theme == "" && f.LegislationDate == "" && f.Region == ""
}

// Fields returns the constrained metadata fields keyed by their JSONB names.
func (f QueryFilter) Fields() map[string]string {
	out := make(map[string]string, 3)
	if f.Theme != "" {
		out["theme"] = f.Theme
	}
	if f.LegislationDate != "" {
		out["legislation_date"] = f.LegislationDate
	}
	if f.Region != "" {
		out["region"] = f.Region
	}
	return out
}

// Merge overlays non-empty fields of other on top of f. Caller-supplied
// constraints win over extracted ones.
func (f QueryFilter) Merge(other QueryFilter) QueryFilter {
	if other.Theme != "" {
		f.Theme = other.Theme
	}
	if other.LegislationDate != "" {
		f.LegislationDate = other.LegislationDate
	}
	if other.Region != "" {
		f.Region = other.Region
	}
	return f
}
