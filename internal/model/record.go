package model

import (
	"strings"
	"time"
)

type Source string

const (
	SourceVideo Source = "YouTube"
	SourceForum Source = "Forum"
	SourceTrend Source = "Google"
)

// RegionGlobal is the region of records from sources without geography.
const RegionGlobal = "Global"

// Sources lists every source in collection order.
func Sources() []Source {
	return []Source{SourceVideo, SourceForum, SourceTrend}
}

// ParseSource matches s against the known sources ignoring case.
func ParseSource(s string) (Source, bool) {
	for _, src := range Sources() {
		if strings.EqualFold(string(src), s) {
			return src, true
		}
	}
	return "", false
}

// Record is one popularity observation. (Subject, Source, Region) is its natural key.
type Record struct {
	Subject    string
	Source     Source
	Metrics    map[string]float64
	Region     string
	ObservedAt time.Time
}

func NewRecord(subject string, source Source, region string, metrics map[string]float64) Record {
	r := Record{
		Subject:    subject,
		Source:     source,
		Metrics:    metrics,
		Region:     region,
		ObservedAt: time.Now().UTC(),
	}
	return r.Normalize()
}

// Normalize fills the fields every persisted record must carry.
func (r Record) Normalize() Record {
	if r.Metrics == nil {
		r.Metrics = map[string]float64{}
	}
	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now().UTC()
	}
	if r.Region == "" {
		r.Region = RegionGlobal
	}
	return r
}

func (r Record) Key() string {
	return string(r.Source) + "|" + r.Region + "|" + r.Subject
}

// UpsertResult reports a batch write. Failed > 0 always comes with a non-nil error.
// Published counts records handed to a queue; they are not stored yet, so they
// are never counted as Saved.
type UpsertResult struct {
	Attempted int `json:"attempted"`
	Saved     int `json:"saved"`
	Published int `json:"published,omitempty"`
	Failed    int `json:"failed"`
}

type Filter struct {
	Source string
	Region string
}

type Stats struct {
	TotalWorkflows int64            `json:"total_workflows"`
	ByPlatform     map[string]int64 `json:"by_platform"`
	ByCountry      map[string]int64 `json:"by_country"`
	LastUpdated    *string          `json:"last_updated"`
}
