package model

import "time"

// RecordMessage is the Record payload published to Kafka
type RecordMessage struct {
	Subject    string             `json:"subject"`
	Source     string             `json:"source"`
	Metrics    map[string]float64 `json:"metrics"`
	Region     string             `json:"region"`
	ObservedAt time.Time          `json:"observed_at"`
	RunID      string             `json:"run_id,omitempty"`
}

func NewRecordMessage(r Record, runID string) RecordMessage {
	r = r.Normalize()
	return RecordMessage{
		Subject:    r.Subject,
		Source:     string(r.Source),
		Metrics:    r.Metrics,
		Region:     r.Region,
		ObservedAt: r.ObservedAt,
		RunID:      runID,
	}
}

func (m RecordMessage) Record() Record {
	return Record{
		Subject:    m.Subject,
		Source:     Source(m.Source),
		Metrics:    m.Metrics,
		Region:     m.Region,
		ObservedAt: m.ObservedAt,
	}.Normalize()
}

// RecordMessageKey routes record messages to the ingest handler.
const RecordMessageKey = "record"
