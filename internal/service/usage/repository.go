package usage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type LogRow struct {
	UserID           string
	UserEmail        string
	UserName         string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	EstimatedCost    float64
	CreatedAt        time.Time
}

type AggregateQuery struct {
	Search          string
	ActivityLevel   string // empty means all levels
	UserType        string
	InternalDomains []string
	Limit           int
	Offset          int
}

// AggregatedRow is one user's rolled-up usage. The repository fills the
// SQL-derived fields; the service layers scores, credits and payment
// flags on top.
type AggregatedRow struct {
	UserID                string    `json:"user_id"`
	UserName              string    `json:"user_name"`
	UserEmail             string    `json:"user_email"`
	TotalPromptTokens     int64     `json:"total_prompt_tokens"`
	TotalCompletionTokens int64     `json:"total_completion_tokens"`
	TotalTokens           int64     `json:"total_tokens"`
	TotalEstimatedCost    float64   `json:"total_estimated_cost"`
	UsageCount            int64     `json:"usage_count"`
	EarliestActivity      time.Time `json:"earliest_activity"`
	LatestActivity        time.Time `json:"latest_activity"`
	HasCompletedPayment   bool      `json:"has_completed_payment"`
	ActivityLevel         string    `json:"activity_level"`
	DaysSinceLastActivity int       `json:"days_since_last_activity"`
	ActivityScore         float64   `json:"activity_score"`
	UserType              string    `json:"user_type"`
	TotalCredits          int64     `json:"total_credits"`
}

type AggregatePage struct {
	Rows             []AggregatedRow
	TotalCount       int
	GrandTotalTokens int64
	GrandTotalCost   float64
}

type Repository interface {
	InsertLog(ctx context.Context, row LogRow) error
	Aggregate(ctx context.Context, query AggregateQuery) (AggregatePage, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertLog(ctx context.Context, row LogRow) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO usage_logs (user_id, user_email, user_name, model, prompt_tokens, completion_tokens, total_tokens, estimated_cost, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		row.UserID,
		row.UserEmail,
		row.UserName,
		row.Model,
		row.PromptTokens,
		row.CompletionTokens,
		row.TotalTokens,
		row.EstimatedCost,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

// Aggregate groups the raw log rows per user and pages through the
// result. The activity and user-type buckets are computed in SQL so the
// filters shape total_count and the grand totals, not just the page.
func (r *PostgresRepository) Aggregate(ctx context.Context, query AggregateQuery) (AggregatePage, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`WITH per_user AS (
			SELECT
				user_id,
				COALESCE(MAX(NULLIF(user_email, '')), '') AS user_email,
				COALESCE(MAX(NULLIF(user_name, '')), '')  AS user_name,
				COALESCE(SUM(prompt_tokens), 0)::bigint     AS total_prompt_tokens,
				COALESCE(SUM(completion_tokens), 0)::bigint AS total_completion_tokens,
				COALESCE(SUM(total_tokens), 0)::bigint      AS total_tokens,
				COALESCE(SUM(estimated_cost), 0)::float8    AS total_estimated_cost,
				COUNT(*)                                    AS usage_count,
				MIN(created_at)                             AS earliest_activity,
				MAX(created_at)                             AS latest_activity
			FROM usage_logs
			GROUP BY user_id
		),
		classified AS (
			SELECT *,
				FLOOR(EXTRACT(EPOCH FROM (NOW() - latest_activity)) / 86400)::int AS days_since_last_activity,
				CASE
					WHEN latest_activity IS NULL THEN 'inactive'
					WHEN FLOOR(EXTRACT(EPOCH FROM (NOW() - latest_activity)) / 86400) <= 2 THEN 'high'
					WHEN FLOOR(EXTRACT(EPOCH FROM (NOW() - latest_activity)) / 86400) = 3 THEN 'medium'
					ELSE 'low'
				END AS activity_level,
				CASE
					WHEN split_part(LOWER(user_email), '@', 2) = ANY($1) THEN 'internal'
					ELSE 'external'
				END AS user_type
			FROM per_user
		),
		filtered AS (
			SELECT * FROM classified
			WHERE user_type = $2
			  AND ($3 = '' OR activity_level = $3)
			  AND ($4 = ''
				OR user_id ILIKE '%' || $4 || '%'
				OR user_email ILIKE '%' || $4 || '%'
				OR user_name ILIKE '%' || $4 || '%')
		)
		SELECT
			user_id, user_email, user_name,
			total_prompt_tokens, total_completion_tokens, total_tokens,
			total_estimated_cost, usage_count,
			earliest_activity, latest_activity,
			days_since_last_activity, activity_level, user_type,
			COUNT(*) OVER()                                    AS total_count,
			COALESCE(SUM(total_tokens) OVER(), 0)::bigint        AS grand_total_tokens,
			COALESCE(SUM(total_estimated_cost) OVER(), 0)::float8 AS grand_total_cost
		FROM filtered
		ORDER BY latest_activity DESC NULLS LAST
		LIMIT $5 OFFSET $6`,
		internalDomainArray(query.InternalDomains),
		query.UserType,
		query.ActivityLevel,
		query.Search,
		query.Limit,
		query.Offset,
	)
	if err != nil {
		return AggregatePage{}, fmt.Errorf("aggregate usage logs: %w", err)
	}
	defer rows.Close()

	page := AggregatePage{Rows: []AggregatedRow{}}
	for rows.Next() {
		var row AggregatedRow
		if err := rows.Scan(
			&row.UserID,
			&row.UserEmail,
			&row.UserName,
			&row.TotalPromptTokens,
			&row.TotalCompletionTokens,
			&row.TotalTokens,
			&row.TotalEstimatedCost,
			&row.UsageCount,
			&row.EarliestActivity,
			&row.LatestActivity,
			&row.DaysSinceLastActivity,
			&row.ActivityLevel,
			&row.UserType,
			&page.TotalCount,
			&page.GrandTotalTokens,
			&page.GrandTotalCost,
		); err != nil {
			return AggregatePage{}, fmt.Errorf("scan usage aggregate: %w", err)
		}
		page.Rows = append(page.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return AggregatePage{}, fmt.Errorf("aggregate usage logs: %w", err)
	}
	return page, nil
}

// internalDomainArray always yields a non-empty array literal so the
// ANY($1) comparison stays valid when no domains are configured.
func internalDomainArray(domains []string) []string {
	if len(domains) == 0 {
		return []string{""}
	}
	lowered := make([]string, len(domains))
	for i, domain := range domains {
		lowered[i] = strings.ToLower(domain)
	}
	return lowered
}
