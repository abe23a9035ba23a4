package model

type ActivityLevel string

const (
	ActivityHigh     ActivityLevel = "high"
	ActivityMedium   ActivityLevel = "medium"
	ActivityLow      ActivityLevel = "low"
	ActivityInactive ActivityLevel = "inactive"
)

type UserType string

const (
	UserTypeInternal UserType = "internal"
	UserTypeExternal UserType = "external"
)

// UsageAggregate is one user's rollup of raw usage events. It is computed
// by the usage service at fetch time and never stored as source of truth;
// activity_level, activity_score and user_type are derived fields.
type UsageAggregate struct {
	UserID                string        `json:"user_id"`
	UserName              string        `json:"user_name"`
	UserEmail             string        `json:"user_email"`
	TotalPromptTokens     int64         `json:"total_prompt_tokens"`
	TotalCompletionTokens int64         `json:"total_completion_tokens"`
	TotalTokens           int64         `json:"total_tokens"`
	TotalEstimatedCost    float64       `json:"total_estimated_cost"`
	UsageCount            int64         `json:"usage_count"`
	EarliestActivity      string        `json:"earliest_activity"`
	LatestActivity        string        `json:"latest_activity"`
	HasCompletedPayment   bool          `json:"has_completed_payment"`
	ActivityLevel         ActivityLevel `json:"activity_level"`
	DaysSinceLastActivity int           `json:"days_since_last_activity"`
	ActivityScore         float64       `json:"activity_score"`
	UserType              UserType      `json:"user_type"`
}

func (u UsageAggregate) Key() string {
	return u.UserID
}
