package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/pkg/db"
	"github.com/thep200/workflow-popularity/pkg/log"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

const maxSubjectLength = 255

// Workflow is the persisted row of a Record, and the store operating on the workflows table.
type Workflow struct {
	Model
	Subject    string         `gorm:"column:workflow;type:varchar(255);not null;uniqueIndex:idx_workflows_natural_key,priority:1"`
	Source     string         `gorm:"column:platform;type:varchar(32);not null;uniqueIndex:idx_workflows_natural_key,priority:2"`
	Metrics    datatypes.JSON `gorm:"column:popularity_metrics;not null"`
	Region     string         `gorm:"column:country;type:varchar(64);not null;uniqueIndex:idx_workflows_natural_key,priority:3"`
	ObservedAt time.Time      `gorm:"column:last_updated;not null;index"`
}

// WorkflowView is the read shape returned to API clients.
type WorkflowView struct {
	ID                uint               `json:"id"`
	Workflow          string             `json:"workflow"`
	Platform          string             `json:"platform"`
	PopularityMetrics map[string]float64 `json:"popularity_metrics"`
	Country           string             `json:"country"`
	LastUpdated       string             `json:"last_updated"`
}

func NewWorkflow(config *cfg.Config, logger log.Logger, database *db.Database) (*Workflow, error) {
	if database == nil {
		return nil, errors.New("workflow store requires a database")
	}
	workflow := &Workflow{
		Model: Model{
			Config:   config,
			Logger:   logger,
			Database: database,
		},
	}
	return workflow, nil
}

func (w *Workflow) TableName() string {
	return "workflows"
}

// Migrate creates the workflows table and its natural key index when absent.
func (w *Workflow) Migrate() error {
	return w.Database.Migrate(&Workflow{})
}

func (w *Workflow) fromRecord(r Record) (*Workflow, error) {
	r = r.Normalize()
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}
	return &Workflow{
		Subject:    TruncateString(r.Subject, maxSubjectLength),
		Source:     string(r.Source),
		Metrics:    datatypes.JSON(metrics),
		Region:     r.Region,
		ObservedAt: r.ObservedAt.UTC(),
	}, nil
}

// UpsertBatch writes every record independently. A failing record does not stop
// the rest; all failures are joined into the returned error.
func (w *Workflow) UpsertBatch(ctx context.Context, records []Record) (UpsertResult, error) {
	result := UpsertResult{Attempted: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	database, err := w.Database.Db()
	if err != nil {
		result.Failed = len(records)
		return result, fmt.Errorf("failed to get database connection: %w", err)
	}

	var errs []error
	for _, record := range records {
		row, err := w.fromRecord(record)
		if err == nil {
			err = database.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "workflow"}, {Name: "platform"}, {Name: "country"}},
				DoUpdates: clause.AssignmentColumns([]string{"popularity_metrics", "last_updated", "updated_at"}),
			}).Create(row).Error
		}
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("upsert %s: %w", record.Key(), err))
			w.Logger.Error(ctx, "Failed to upsert workflow %q (%s/%s): %v", record.Subject, record.Source, record.Region, err)
			continue
		}
		result.Saved++
	}

	w.Logger.Info(ctx, "Saved %d/%d workflows to database (%d failed)", result.Saved, result.Attempted, result.Failed)
	return result, errors.Join(errs...)
}

// Query returns stored rows matching filter. Empty filter fields match everything,
// set ones compare case-insensitively. Order is unspecified.
func (w *Workflow) Query(ctx context.Context, filter Filter) ([]WorkflowView, error) {
	database, err := w.Database.Db()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	query := database.WithContext(ctx).Model(&Workflow{})
	if filter.Source != "" {
		query = query.Where("LOWER(platform) = LOWER(?)", filter.Source)
	}
	if filter.Region != "" {
		query = query.Where("LOWER(country) = LOWER(?)", filter.Region)
	}

	var rows []Workflow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	views := make([]WorkflowView, 0, len(rows))
	for _, row := range rows {
		views = append(views, w.toView(ctx, row))
	}
	return views, nil
}

func (w *Workflow) toView(ctx context.Context, row Workflow) WorkflowView {
	metrics := map[string]float64{}
	if len(row.Metrics) > 0 {
		if err := json.Unmarshal(row.Metrics, &metrics); err != nil {
			w.Logger.Warn(ctx, "Unreadable metrics for workflow id=%d: %v", row.ID, err)
			metrics = map[string]float64{}
		}
	}
	return WorkflowView{
		ID:                row.ID,
		Workflow:          row.Subject,
		Platform:          row.Source,
		PopularityMetrics: metrics,
		Country:           row.Region,
		LastUpdated:       row.ObservedAt.UTC().Format(time.RFC3339),
	}
}

type groupCount struct {
	Grp string
	Cnt int64
}

// Stats counts rows overall, per platform and per country, and finds the newest observation.
func (w *Workflow) Stats(ctx context.Context) (*Stats, error) {
	database, err := w.Database.Db()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	database = database.WithContext(ctx)

	stats := &Stats{
		ByPlatform: map[string]int64{},
		ByCountry:  map[string]int64{},
	}
	if err := database.Model(&Workflow{}).Count(&stats.TotalWorkflows).Error; err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}

	var byPlatform []groupCount
	if err := database.Model(&Workflow{}).Select("platform AS grp, COUNT(*) AS cnt").Group("platform").Scan(&byPlatform).Error; err != nil {
		return nil, fmt.Errorf("failed to group by platform: %w", err)
	}
	for _, g := range byPlatform {
		stats.ByPlatform[g.Grp] = g.Cnt
	}

	var byCountry []groupCount
	if err := database.Model(&Workflow{}).Select("country AS grp, COUNT(*) AS cnt").Group("country").Scan(&byCountry).Error; err != nil {
		return nil, fmt.Errorf("failed to group by country: %w", err)
	}
	for _, g := range byCountry {
		stats.ByCountry[g.Grp] = g.Cnt
	}

	var latest []Workflow
	if err := database.Model(&Workflow{}).Order("last_updated DESC").Limit(1).Find(&latest).Error; err != nil {
		return nil, fmt.Errorf("failed to read last update: %w", err)
	}
	if len(latest) == 1 {
		lastUpdated := latest[0].ObservedAt.UTC().Format(time.RFC3339)
		stats.LastUpdated = &lastUpdated
	}

	return stats, nil
}
