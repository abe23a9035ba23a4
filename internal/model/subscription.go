package model

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type SubscriptionItem struct {
	ID                 string             `dynamodbav:"id" json:"id"`
	UserID             string             `dynamodbav:"userId" json:"user_id"`
	PlanType           string             `dynamodbav:"planType" json:"plan_type"`
	Status             SubscriptionStatus `dynamodbav:"status" json:"status"`
	StartedAt          string             `dynamodbav:"startedAt" json:"started_at"`
	CurrentPeriodEnd   string             `dynamodbav:"currentPeriodEnd,omitempty" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool               `dynamodbav:"cancelAtPeriodEnd" json:"cancel_at_period_end"`
	CreatedAt          string             `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt          string             `dynamodbav:"updatedAt" json:"updated_at"`
}

func (s SubscriptionItem) Key() string {
	return s.ID
}
