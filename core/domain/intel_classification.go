package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Priority is the ordinal urgency of a message.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the four ordinals.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// ClampPriority maps any ordinal onto the valid range.
func ClampPriority(v int) Priority {
	if v < int(PriorityLow) {
		return PriorityLow
	}
	if v > int(PriorityCritical) {
		return PriorityCritical
	}
	return Priority(v)
}

// ParsePriority accepts an ordinal ("2") or a name ("high").
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "low":
		return PriorityLow, nil
	case "1", "medium":
		return PriorityMedium, nil
	case "2", "high":
		return PriorityHigh, nil
	case "3", "critical":
		return PriorityCritical, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// Category is the closed set of message categories.
type Category string

const (
	CategoryRequiresResponse Category = "RequiresResponse"
	CategoryInformational    Category = "Informational"
	CategoryActionRequired   Category = "ActionRequired"
	CategoryMeeting          Category = "Meeting"
	CategorySupport          Category = "Support"
	CategoryMarketing        Category = "Marketing"
	CategoryNewsletter       Category = "Newsletter"
	CategorySpam             Category = "Spam"
	CategoryPersonal         Category = "Personal"
	CategoryInternal         Category = "Internal"
)

// AllCategories lists every category in declaration order.
var AllCategories = []Category{
	CategoryRequiresResponse,
	CategoryInformational,
	CategoryActionRequired,
	CategoryMeeting,
	CategorySupport,
	CategoryMarketing,
	CategoryNewsletter,
	CategorySpam,
	CategoryPersonal,
	CategoryInternal,
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, known := range AllCategories {
		if strings.EqualFold(string(known), s) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ClassificationResult is the scored outcome of classifying one message.
type ClassificationResult struct {
	Priority         Priority `json:"priority"`
	Category         Category `json:"category"`
	RequiresResponse bool     `json:"requires_response"`
	Confidence       float64  `json:"confidence"`
	Keywords         []string `json:"keywords"`
	ActionItems      *string  `json:"action_items,omitempty"`
}

// Validate checks the result against the ordinal, category and confidence ranges.
func (r *ClassificationResult) Validate() error {
	if !r.Priority.Valid() {
		return fmt.Errorf("priority %d out of range", r.Priority)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range", r.Confidence)
	}
	return nil
}

// ClassificationSchemaVersion is the version written into embedding metadata.
const ClassificationSchemaVersion = 1

// Metadata keys shared by writers and readers of embedding metadata.
const (
	MetaSchemaVersion  = "schema_version"
	MetaClassification = "classification"
	MetaEmailID        = "email_id"
	MetaSender         = "sender"
)

var (
	ErrNoClassification      = errors.New("metadata carries no classification")
	ErrUnsupportedSchema     = errors.New("unsupported classification schema version")
	ErrInvalidClassification = errors.New("invalid classification in metadata")
)

// ClassificationMetadata is the versioned shape stored in EmbeddingRecord.Metadata.
type ClassificationMetadata struct {
	SchemaVersion  int                  `json:"schema_version"`
	Classification ClassificationResult `json:"classification"`
	EmailID        string               `json:"email_id,omitempty"`
	Sender         string               `json:"sender,omitempty"`
}

// NewClassificationMetadata stamps result with the current schema version.
func NewClassificationMetadata(result ClassificationResult, emailID, sender string) ClassificationMetadata {
	return ClassificationMetadata{
		SchemaVersion:  ClassificationSchemaVersion,
		Classification: result,
		EmailID:        emailID,
		Sender:         sender,
	}
}

// ToMap converts the metadata into the free-form map persisted with a record.
func (m ClassificationMetadata) ToMap() (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeClassificationMetadata reads the classification written by ToMap.
func DecodeClassificationMetadata(meta map[string]any) (*ClassificationMetadata, error) {
	if meta == nil {
		return nil, ErrNoClassification
	}
	if _, ok := meta[MetaClassification]; !ok {
		return nil, ErrNoClassification
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}
	var out ClassificationMetadata
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}
	if out.SchemaVersion != ClassificationSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, out.SchemaVersion)
	}
	if err := out.Classification.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}
	return &out, nil
}
