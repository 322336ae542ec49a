// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// LoadRegistry reads a registry file written by Save.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON and stamps LastUpdated.
func (r *ActivityRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

var validStatuses = map[string]bool{
	StatusPlanned:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusVerified:   true,
}

// Validate checks required fields and uniqueness of IDs and task types.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range r.Activities {
		switch {
		case a.ID == "":
			return fmt.Errorf("activity missing required field: id")
		case a.TaskType == "":
			return fmt.Errorf("activity %s missing required field: taskType", a.ID)
		case a.DisplayName == "":
			return fmt.Errorf("activity %s missing required field: displayName", a.ID)
		case ids[a.ID]:
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		case taskTypes[a.TaskType]:
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		case !validStatuses[a.ImplementationStatus]:
			return fmt.Errorf("activity %s has invalid status %q", a.ID, a.ImplementationStatus)
		case a.Retries < 0:
			return fmt.Errorf("activity %s has negative retries", a.ID)
		}
		if _, err := a.TimeoutDuration(); err != nil {
			return fmt.Errorf("activity %s: %w", a.ID, err)
		}
		ids[a.ID] = true
		taskTypes[a.TaskType] = true
	}
	return nil
}

// TimeoutDuration parses Timeout. An empty timeout is zero.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", a.Timeout, err)
	}
	return d, nil
}

// Default is the catalogue of activities this module implements.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{
				ID:                   "lookup-barcode",
				DisplayName:          "Lookup Barcode",
				Description:          "Resolve a product barcode to product details and an ingredient list via Open Beauty Facts",
				Category:             "safety",
				Version:              "1.0.0",
				TaskType:             "lookup-barcode",
				ImplementationStatus: StatusCompleted,
				ErrorCodes:           []string{"INVALID_INPUT", "INVALID_BARCODE", "BARCODE_LOOKUP_FAILED", "LOOKUP_TIMEOUT"},
				Timeout:              "15s",
				Retries:              3,
				Workflows:            []string{"product-safety-scan"},
				Tags:                 []string{"barcode", "open-beauty-facts"},
			},
			{
				ID:                   "evaluate-ingredients",
				DisplayName:          "Evaluate Ingredients",
				Description:          "Score an ingredient list and aggregate it into a product safety report",
				Category:             "safety",
				Version:              "1.0.0",
				TaskType:             "evaluate-ingredients",
				ImplementationStatus: StatusCompleted,
				ErrorCodes:           []string{"INVALID_INPUT", "SOURCE_UNAVAILABLE", "LOOKUP_TIMEOUT", "ALERT_PUBLISH_FAILED"},
				Timeout:              "30s",
				Retries:              3,
				Workflows:            []string{"product-safety-scan"},
				Tags:                 []string{"ingredients", "safety-score"},
			},
			{
				ID:                   "merge-safety-reports",
				DisplayName:          "Merge Safety Reports",
				Description:          "Combine the OCR and barcode safety reports, preferring barcode evaluations",
				Category:             "safety",
				Version:              "1.0.0",
				TaskType:             "merge-safety-reports",
				ImplementationStatus: StatusCompleted,
				ErrorCodes:           []string{"INVALID_INPUT"},
				Timeout:              "5s",
				Retries:              0,
				Workflows:            []string{"product-safety-scan"},
				Tags:                 []string{"merge"},
			},
			{
				ID:                   "summarize-reviews",
				DisplayName:          "Summarize Reviews",
				Description:          "Classify product reviews and summarize sentiment distribution, ratings and top issues",
				Category:             "sentiment",
				Version:              "1.0.0",
				TaskType:             "summarize-reviews",
				ImplementationStatus: StatusCompleted,
				ErrorCodes:           []string{"INVALID_INPUT", "REVIEW_SOURCE_UNAVAILABLE", "LOOKUP_TIMEOUT"},
				Timeout:              "60s",
				Retries:              3,
				Workflows:            []string{"review-sentiment-report"},
				Tags:                 []string{"reviews", "sentiment"},
			},
		},
	}
}
