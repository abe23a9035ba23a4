package model

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
)

type CreditPurchaseItem struct {
	ID                    string            `dynamodbav:"id" json:"id"`
	UserID                string            `dynamodbav:"userId" json:"user_id"`
	AmountDollars         float64           `dynamodbav:"amountDollars" json:"amount_dollars"`
	StripePaymentIntentID string            `dynamodbav:"stripePaymentIntentId,omitempty" json:"stripe_payment_intent_id,omitempty"`
	StripeChargeID        string            `dynamodbav:"stripeChargeId,omitempty" json:"stripe_charge_id,omitempty"`
	Status                PurchaseStatus    `dynamodbav:"status" json:"status"`
	Description           string            `dynamodbav:"description,omitempty" json:"description,omitempty"`
	Metadata              map[string]string `dynamodbav:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt             string            `dynamodbav:"createdAt" json:"created_at"`
	CompletedAt           string            `dynamodbav:"completedAt,omitempty" json:"completed_at,omitempty"`
	ExpiresAt             string            `dynamodbav:"expiresAt,omitempty" json:"expires_at,omitempty"`
}

func (p CreditPurchaseItem) Key() string {
	return p.ID
}

type CreditBalanceItem struct {
	UserID         string            `dynamodbav:"userId" json:"user_id"`
	BalanceDollars float64           `dynamodbav:"balanceDollars" json:"balance_dollars"`
	TotalPurchased float64           `dynamodbav:"totalPurchased" json:"total_purchased"`
	TotalUsed      float64           `dynamodbav:"totalUsed" json:"total_used"`
	LastUpdated    string            `dynamodbav:"lastUpdated" json:"last_updated"`
	Metadata       map[string]string `dynamodbav:"metadata,omitempty" json:"metadata,omitempty"`
}

func (b CreditBalanceItem) Key() string {
	return b.UserID
}

type CreditUsageItem struct {
	ID            string  `dynamodbav:"id" json:"id"`
	UserID        string  `dynamodbav:"userId" json:"user_id"`
	AmountDollars float64 `dynamodbav:"amountDollars" json:"amount_dollars"`
	Description   string  `dynamodbav:"description,omitempty" json:"description,omitempty"`
	CreatedAt     string  `dynamodbav:"createdAt" json:"created_at"`
}

func (u CreditUsageItem) Key() string {
	return u.ID
}
