package collector

import (
	"context"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/thep200/workflow-popularity/internal/model"
)

// RegionalProvider collects one region per call.
type RegionalProvider interface {
	Source() model.Source
	Collect(ctx context.Context, region string) ([]model.Record, error)
}

// GlobalProvider collects records without geography.
type GlobalProvider interface {
	Source() model.Source
	Collect(ctx context.Context) ([]model.Record, error)
}

var titlePolicy = bluemonday.StrictPolicy()

// cleanTitle drops markup and entities upstream titles sometimes carry.
func cleanTitle(s string) string {
	return strings.TrimSpace(html.UnescapeString(titlePolicy.Sanitize(s)))
}
