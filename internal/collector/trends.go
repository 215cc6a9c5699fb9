package collector

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/thep200/workflow-popularity/cfg"
	"github.com/thep200/workflow-popularity/internal/limiter"
	"github.com/thep200/workflow-popularity/internal/metrics"
	"github.com/thep200/workflow-popularity/internal/model"
	"github.com/thep200/workflow-popularity/pkg/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type trendsAPI interface {
	InterestOverTime(ctx context.Context, keyword, geo string) ([]float64, error)
}

type TrendProvider struct {
	Logger log.Logger
	Config *cfg.Config
	api    trendsAPI
}

func NewTrendProvider(logger log.Logger, config *cfg.Config, api trendsAPI) *TrendProvider {
	return &TrendProvider{
		Logger: logger,
		Config: config,
		api:    api,
	}
}

func (p *TrendProvider) Source() model.Source {
	return model.SourceTrend
}

// Collect queries keywords one at a time. It pauses after every request and
// longer after a failed one; the pauses only block this call.
func (p *TrendProvider) Collect(ctx context.Context, region string) ([]model.Record, error) {
	geo := region
	if strings.EqualFold(region, model.RegionGlobal) {
		geo = ""
	}
	requestDelay := time.Duration(p.Config.Trends.RequestDelayMs) * time.Millisecond
	errorDelay := time.Duration(p.Config.Trends.ErrorDelayMs) * time.Millisecond

	records := make([]model.Record, 0)
	for _, keyword := range p.Config.Trends.Keywords {
		series, err := p.api.InterestOverTime(ctx, keyword, geo)
		if err != nil {
			p.Logger.Error(ctx, "Error fetching Google Trends data for %q in %s: %v", keyword, region, err)
			metrics.UnitFailures.WithLabelValues(string(model.SourceTrend), "keyword").Inc()
			if err := limiter.Pause(ctx, errorDelay); err != nil {
				return records, err
			}
			continue
		}

		summary := Summarize(series)
		if summary.Average > p.Config.Trends.MinInterest {
			records = append(records, model.NewRecord(p.subject(keyword), model.SourceTrend, region, map[string]float64{
				"average_interest":     model.Round(summary.Average, 2),
				"trend_change_percent": model.Round(summary.ChangePercent, 2),
				"peak_interest":        summary.Peak,
				"search_consistency":   model.Round(summary.StdDev, 2),
			}))
		} else {
			p.Logger.Debug(ctx, "Dropping %q in %s: average interest %.2f", keyword, region, summary.Average)
		}

		if err := limiter.Pause(ctx, requestDelay); err != nil {
			return records, err
		}
	}

	metrics.RecordsCollected.WithLabelValues(string(model.SourceTrend), region).Add(float64(len(records)))
	return records, nil
}

// subject strips the brand prefix and title-cases the rest: "n8n slack automation" -> "Slack Automation".
// A Caser holds state, so each call gets its own.
func (p *TrendProvider) subject(keyword string) string {
	prefix := p.Config.Trends.SubjectPrefix
	if prefix != "" && len(keyword) >= len(prefix) && strings.EqualFold(keyword[:len(prefix)], prefix) {
		keyword = keyword[len(prefix):]
	}
	return cases.Title(language.English).String(strings.TrimSpace(keyword))
}

type TrendSummary struct {
	Average       float64
	ChangePercent float64
	Peak          float64
	StdDev        float64
}

func Summarize(series []float64) TrendSummary {
	if len(series) == 0 {
		return TrendSummary{}
	}
	peak := series[0]
	for _, v := range series[1:] {
		if v > peak {
			peak = v
		}
	}
	return TrendSummary{
		Average:       mean(series),
		ChangePercent: TrendChange(series),
		Peak:          peak,
		StdDev:        sampleStdDev(series),
	}
}

// TrendChange compares the mean of the last quarter of series with the quarter
// before it, in percent. Series shorter than four points, or a flat-zero previous
// quarter, give 0.
func TrendChange(series []float64) float64 {
	n := len(series)
	if n < 4 {
		return 0
	}
	quarter := n / 4
	recent := mean(series[n-quarter:])
	previous := mean(series[n-2*quarter : n-quarter])
	if previous > 0 {
		return (recent - previous) / previous * 100
	}
	return 0
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
