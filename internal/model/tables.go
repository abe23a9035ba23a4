package model

const (
	WaitlistTable        = "WaitlistUsers"
	InviteCodesTable     = "InviteCodes"
	UserProfilesTable    = "UserProfiles"
	AccountsTable        = "Accounts"
	SubscriptionsTable   = "Subscriptions"
	CreditPurchasesTable = "CreditPurchases"
	CreditBalancesTable  = "CreditBalances"
	CreditUsageTable     = "CreditUsage"
	EmailBatchesTable    = "EmailBatches"
)

// Feed tables name entity collections on the change feed and in sync
// caches. Rows published under these names use the snake_case JSON shape
// the decoders in this package expect.
const (
	FeedWaitlist        = "waitlist"
	FeedInviteCodes     = "invite_codes"
	FeedUserProfiles    = "user_profiles"
	FeedSubscriptions   = "subscriptions"
	FeedCreditPurchases = "credit_purchases"
	FeedCreditBalances  = "credit_balance"
	FeedCreditUsage     = "credit_usage"
	FeedUsageLogs       = "usage_logs"
	FeedEmailBatches    = "email_batches"
)
