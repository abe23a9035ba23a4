package entitysync

import "helium-admin-backend/internal/model"

// Record is one synced entity row. Every model item satisfies it; keys are
// unique within a collection.
type Record interface {
	Key() string
}

// Decoder converts a raw snake_case row into a typed record, failing on any
// missing or mistyped field.
type Decoder func(row map[string]any) (Record, error)

// EntityConfig describes one synced entity type. KeyField names the row
// column holding the entity key (delete events may carry nothing else).
// Aggregate entities re-fetch on any change instead of patching rows,
// since a single raw-row change can shift cross-user totals.
type EntityConfig struct {
	Table     string
	KeyField  string
	Decode    Decoder
	Aggregate bool
}

func WaitlistEntity() EntityConfig {
	return EntityConfig{
		Table:    model.FeedWaitlist,
		KeyField: "id",
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeWaitlistUser(row)
		},
	}
}

func InviteCodeEntity() EntityConfig {
	return EntityConfig{
		Table:    model.FeedInviteCodes,
		KeyField: "id",
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeInviteCode(row)
		},
	}
}

func UserProfileEntity() EntityConfig {
	return EntityConfig{
		Table:    model.FeedUserProfiles,
		KeyField: "user_id",
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeUserProfile(row)
		},
	}
}

func SubscriptionEntity() EntityConfig {
	return EntityConfig{
		Table:    model.FeedSubscriptions,
		KeyField: "id",
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeSubscription(row)
		},
	}
}

func CreditPurchaseEntity() EntityConfig {
	return EntityConfig{
		Table:    model.FeedCreditPurchases,
		KeyField: "id",
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeCreditPurchase(row)
		},
	}
}

func CreditBalanceEntity() EntityConfig {
	return EntityConfig{
		Table:    model.FeedCreditBalances,
		KeyField: "user_id",
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeCreditBalance(row)
		},
	}
}

func CreditUsageEntity() EntityConfig {
	return EntityConfig{
		Table:    model.FeedCreditUsage,
		KeyField: "id",
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeCreditUsage(row)
		},
	}
}

// UsageLogEntity is the aggregate view over raw usage events: row changes
// invalidate the whole page via debounced re-fetch.
func UsageLogEntity() EntityConfig {
	return EntityConfig{
		Table:     model.FeedUsageLogs,
		KeyField:  "user_id",
		Aggregate: true,
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeUsageAggregate(row)
		},
	}
}

func EmailBatchEntity() EntityConfig {
	return EntityConfig{
		Table:    model.FeedEmailBatches,
		KeyField: "id",
		Decode: func(row map[string]any) (Record, error) {
			return model.DecodeEmailBatch(row)
		},
	}
}
