package model

type InviteCodeItem struct {
	ID             string   `dynamodbav:"id" json:"id"`
	Code           string   `dynamodbav:"code" json:"code"`
	IsUsed         bool     `dynamodbav:"isUsed" json:"is_used"`
	UsedBy         string   `dynamodbav:"usedBy,omitempty" json:"used_by,omitempty"`
	UsedAt         string   `dynamodbav:"usedAt,omitempty" json:"used_at,omitempty"`
	CreatedAt      string   `dynamodbav:"createdAt" json:"created_at"`
	ExpiresAt      string   `dynamodbav:"expiresAt,omitempty" json:"expires_at,omitempty"`
	MaxUses        int      `dynamodbav:"maxUses" json:"max_uses"`
	CurrentUses    int      `dynamodbav:"currentUses" json:"current_uses"`
	IsArchived     bool     `dynamodbav:"isArchived" json:"is_archived"`
	EmailSentTo    []string `dynamodbav:"emailSentTo,omitempty" json:"email_sent_to,omitempty"`
	ReminderSentAt string   `dynamodbav:"reminderSentAt,omitempty" json:"reminder_sent_at,omitempty"`
}

func (c InviteCodeItem) Key() string {
	return c.ID
}
