package model

const (
	DefaultPlanType    = "seed"
	DefaultAccountType = "individual"
)

type UserProfileItem struct {
	ID                  string            `dynamodbav:"id" json:"id"`
	UserID              string            `dynamodbav:"userId" json:"user_id"`
	FullName            string            `dynamodbav:"fullName,omitempty" json:"full_name,omitempty"`
	PreferredName       string            `dynamodbav:"preferredName,omitempty" json:"preferred_name,omitempty"`
	CompanyName         string            `dynamodbav:"companyName,omitempty" json:"company_name,omitempty"`
	PhoneNumber         string            `dynamodbav:"phoneNumber,omitempty" json:"phone_number,omitempty"`
	PlanType            string            `dynamodbav:"planType" json:"plan_type"`
	AccountType         string            `dynamodbav:"accountType" json:"account_type"`
	OnboardingCompleted bool              `dynamodbav:"onboardingCompleted" json:"onboarding_completed"`
	Metadata            map[string]string `dynamodbav:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt           string            `dynamodbav:"createdAt" json:"created_at"`
	UpdatedAt           string            `dynamodbav:"updatedAt" json:"updated_at"`
}

func (p UserProfileItem) Key() string {
	return p.UserID
}

// AccountItem mirrors the auth provider's user record: the identity source
// of last resort when no profile row exists for a user id.
type AccountItem struct {
	UserID      string `dynamodbav:"userId" json:"user_id"`
	Email       string `dynamodbav:"email" json:"email"`
	DisplayName string `dynamodbav:"displayName,omitempty" json:"display_name,omitempty"`
	CreatedAt   string `dynamodbav:"createdAt" json:"created_at"`
}

func (a AccountItem) Key() string {
	return a.UserID
}
