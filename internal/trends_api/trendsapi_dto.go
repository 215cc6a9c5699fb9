// Google Trends explore and multiline widget payloads.

package trendsapi

import "encoding/json"

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Time    string `json:"time"`
}

type ExploreResponse struct {
	Widgets []Widget `json:"widgets"`
}

// Widget.Request is echoed back verbatim when fetching the widget data.
type Widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type MultilineResponse struct {
	Default struct {
		TimelineData []TimelinePoint `json:"timelineData"`
	} `json:"default"`
}

type TimelinePoint struct {
	Time      string `json:"time"`
	Value     []int  `json:"value"`
	HasData   []bool `json:"hasData"`
	IsPartial bool   `json:"isPartial"`
}
