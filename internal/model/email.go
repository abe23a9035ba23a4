package model

type BatchStatus string

const (
	BatchStatusQueued    BatchStatus = "queued"
	BatchStatusSending   BatchStatus = "sending"
	BatchStatusCompleted BatchStatus = "completed"
)

type EmailBatchItem struct {
	ID          string      `dynamodbav:"id" json:"id"`
	Template    string      `dynamodbav:"template" json:"template"`
	Subject     string      `dynamodbav:"subject" json:"subject"`
	Total       int         `dynamodbav:"total" json:"total"`
	Sent        int         `dynamodbav:"sent" json:"sent"`
	Failed      int         `dynamodbav:"failed" json:"failed"`
	Status      BatchStatus `dynamodbav:"status" json:"status"`
	Errors      []string    `dynamodbav:"errors,omitempty" json:"errors,omitempty"`
	CreatedAt   string      `dynamodbav:"createdAt" json:"created_at"`
	CompletedAt string      `dynamodbav:"completedAt,omitempty" json:"completed_at,omitempty"`
}

func (b EmailBatchItem) Key() string {
	return b.ID
}
