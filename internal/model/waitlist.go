package model

type WaitlistUserItem struct {
	ID             string `dynamodbav:"id" json:"id"`
	FullName       string `dynamodbav:"fullName" json:"full_name"`
	Email          string `dynamodbav:"email" json:"email"`
	Company        string `dynamodbav:"company,omitempty" json:"company,omitempty"`
	PhoneNumber    string `dynamodbav:"phoneNumber,omitempty" json:"phone_number,omitempty"`
	CountryCode    string `dynamodbav:"countryCode,omitempty" json:"country_code,omitempty"`
	ReferralSource string `dynamodbav:"referralSource,omitempty" json:"referral_source,omitempty"`
	JoinedAt       string `dynamodbav:"joinedAt" json:"joined_at"`
	NotifiedAt     string `dynamodbav:"notifiedAt,omitempty" json:"notified_at,omitempty"`
	IsNotified     bool   `dynamodbav:"isNotified" json:"is_notified"`
	IsArchived     bool   `dynamodbav:"isArchived" json:"is_archived"`
	UserAgent      string `dynamodbav:"userAgent,omitempty" json:"user_agent,omitempty"`
	IPAddress      string `dynamodbav:"ipAddress,omitempty" json:"ip_address,omitempty"`
}

func (w WaitlistUserItem) Key() string {
	return w.ID
}
