package model

import "fmt"

// Decoders convert raw change-feed and cache rows (snake_case JSON objects)
// into typed records. A row with a missing or mistyped field fails the whole
// decode; callers never receive a silently defaulted record.

type rowDecoder struct {
	table string
	row   map[string]any
	err   error
}

func (d *rowDecoder) fail(field, format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%s row: field %q %s", d.table, field, fmt.Sprintf(format, args...))
	}
}

func (d *rowDecoder) str(field string) string {
	v, ok := d.row[field]
	if !ok || v == nil {
		d.fail(field, "missing")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(field, "expected string, got %T", v)
		return ""
	}
	return s
}

func (d *rowDecoder) optStr(field string) string {
	v, ok := d.row[field]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(field, "expected string, got %T", v)
		return ""
	}
	return s
}

func (d *rowDecoder) boolean(field string) bool {
	v, ok := d.row[field]
	if !ok || v == nil {
		d.fail(field, "missing")
		return false
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(field, "expected bool, got %T", v)
		return false
	}
	return b
}

func (d *rowDecoder) number(field string) float64 {
	v, ok := d.row[field]
	if !ok || v == nil {
		d.fail(field, "missing")
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		d.fail(field, "expected number, got %T", v)
		return 0
	}
}

func (d *rowDecoder) optNumber(field string) float64 {
	if v, ok := d.row[field]; !ok || v == nil {
		return 0
	}
	return d.number(field)
}

func (d *rowDecoder) integer(field string) int {
	return int(d.number(field))
}

func (d *rowDecoder) optStrSlice(field string) []string {
	v, ok := d.row[field]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			return typed
		}
		d.fail(field, "expected string array, got %T", v)
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			d.fail(field, "expected string array, got element %T", item)
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (d *rowDecoder) optStrMap(field string) map[string]string {
	v, ok := d.row[field]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		if typed, ok := v.(map[string]string); ok {
			return typed
		}
		d.fail(field, "expected object, got %T", v)
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, item := range raw {
		s, ok := item.(string)
		if !ok {
			d.fail(field, "expected string values, got %T for %q", item, k)
			return nil
		}
		out[k] = s
	}
	return out
}

func DecodeWaitlistUser(row map[string]any) (WaitlistUserItem, error) {
	d := &rowDecoder{table: FeedWaitlist, row: row}
	u := WaitlistUserItem{
		ID:             d.str("id"),
		FullName:       d.str("full_name"),
		Email:          d.str("email"),
		Company:        d.optStr("company"),
		PhoneNumber:    d.optStr("phone_number"),
		CountryCode:    d.optStr("country_code"),
		ReferralSource: d.optStr("referral_source"),
		JoinedAt:       d.str("joined_at"),
		NotifiedAt:     d.optStr("notified_at"),
		IsNotified:     d.boolean("is_notified"),
		IsArchived:     d.boolean("is_archived"),
		UserAgent:      d.optStr("user_agent"),
		IPAddress:      d.optStr("ip_address"),
	}
	return u, d.err
}

func DecodeInviteCode(row map[string]any) (InviteCodeItem, error) {
	d := &rowDecoder{table: FeedInviteCodes, row: row}
	c := InviteCodeItem{
		ID:             d.str("id"),
		Code:           d.str("code"),
		IsUsed:         d.boolean("is_used"),
		UsedBy:         d.optStr("used_by"),
		UsedAt:         d.optStr("used_at"),
		CreatedAt:      d.str("created_at"),
		ExpiresAt:      d.optStr("expires_at"),
		MaxUses:        d.integer("max_uses"),
		CurrentUses:    d.integer("current_uses"),
		IsArchived:     d.boolean("is_archived"),
		EmailSentTo:    d.optStrSlice("email_sent_to"),
		ReminderSentAt: d.optStr("reminder_sent_at"),
	}
	return c, d.err
}

func DecodeUserProfile(row map[string]any) (UserProfileItem, error) {
	d := &rowDecoder{table: FeedUserProfiles, row: row}
	p := UserProfileItem{
		ID:                  d.str("id"),
		UserID:              d.str("user_id"),
		FullName:            d.optStr("full_name"),
		PreferredName:       d.optStr("preferred_name"),
		CompanyName:         d.optStr("company_name"),
		PhoneNumber:         d.optStr("phone_number"),
		PlanType:            d.str("plan_type"),
		AccountType:         d.str("account_type"),
		OnboardingCompleted: d.boolean("onboarding_completed"),
		Metadata:            d.optStrMap("metadata"),
		CreatedAt:           d.str("created_at"),
		UpdatedAt:           d.str("updated_at"),
	}
	return p, d.err
}

func DecodeSubscription(row map[string]any) (SubscriptionItem, error) {
	d := &rowDecoder{table: FeedSubscriptions, row: row}
	s := SubscriptionItem{
		ID:                d.str("id"),
		UserID:            d.str("user_id"),
		PlanType:          d.str("plan_type"),
		Status:            SubscriptionStatus(d.str("status")),
		StartedAt:         d.str("started_at"),
		CurrentPeriodEnd:  d.optStr("current_period_end"),
		CancelAtPeriodEnd: d.boolean("cancel_at_period_end"),
		CreatedAt:         d.str("created_at"),
		UpdatedAt:         d.str("updated_at"),
	}
	return s, d.err
}

func DecodeCreditPurchase(row map[string]any) (CreditPurchaseItem, error) {
	d := &rowDecoder{table: FeedCreditPurchases, row: row}
	p := CreditPurchaseItem{
		ID:                    d.str("id"),
		UserID:                d.str("user_id"),
		AmountDollars:         d.number("amount_dollars"),
		StripePaymentIntentID: d.optStr("stripe_payment_intent_id"),
		StripeChargeID:        d.optStr("stripe_charge_id"),
		Status:                PurchaseStatus(d.str("status")),
		Description:           d.optStr("description"),
		Metadata:              d.optStrMap("metadata"),
		CreatedAt:             d.str("created_at"),
		CompletedAt:           d.optStr("completed_at"),
		ExpiresAt:             d.optStr("expires_at"),
	}
	return p, d.err
}

func DecodeCreditBalance(row map[string]any) (CreditBalanceItem, error) {
	d := &rowDecoder{table: FeedCreditBalances, row: row}
	b := CreditBalanceItem{
		UserID:         d.str("user_id"),
		BalanceDollars: d.number("balance_dollars"),
		TotalPurchased: d.number("total_purchased"),
		TotalUsed:      d.number("total_used"),
		LastUpdated:    d.str("last_updated"),
		Metadata:       d.optStrMap("metadata"),
	}
	return b, d.err
}

func DecodeCreditUsage(row map[string]any) (CreditUsageItem, error) {
	d := &rowDecoder{table: FeedCreditUsage, row: row}
	u := CreditUsageItem{
		ID:            d.str("id"),
		UserID:        d.str("user_id"),
		AmountDollars: d.number("amount_dollars"),
		Description:   d.optStr("description"),
		CreatedAt:     d.str("created_at"),
	}
	return u, d.err
}

func DecodeUsageAggregate(row map[string]any) (UsageAggregate, error) {
	d := &rowDecoder{table: FeedUsageLogs, row: row}
	a := UsageAggregate{
		UserID:                d.str("user_id"),
		UserName:              d.optStr("user_name"),
		UserEmail:             d.optStr("user_email"),
		TotalPromptTokens:     int64(d.number("total_prompt_tokens")),
		TotalCompletionTokens: int64(d.number("total_completion_tokens")),
		TotalTokens:           int64(d.number("total_tokens")),
		TotalEstimatedCost:    d.number("total_estimated_cost"),
		UsageCount:            int64(d.number("usage_count")),
		EarliestActivity:      d.optStr("earliest_activity"),
		LatestActivity:        d.optStr("latest_activity"),
		HasCompletedPayment:   d.boolean("has_completed_payment"),
		ActivityLevel:         ActivityLevel(d.optStr("activity_level")),
		DaysSinceLastActivity: int(d.optNumber("days_since_last_activity")),
		ActivityScore:         d.optNumber("activity_score"),
		UserType:              UserType(d.optStr("user_type")),
	}
	return a, d.err
}

func DecodeEmailBatch(row map[string]any) (EmailBatchItem, error) {
	d := &rowDecoder{table: FeedEmailBatches, row: row}
	b := EmailBatchItem{
		ID:          d.str("id"),
		Template:    d.str("template"),
		Subject:     d.str("subject"),
		Total:       d.integer("total"),
		Sent:        d.integer("sent"),
		Failed:      d.integer("failed"),
		Status:      BatchStatus(d.str("status")),
		Errors:      d.optStrSlice("errors"),
		CreatedAt:   d.str("created_at"),
		CompletedAt: d.optStr("completed_at"),
	}
	return b, d.err
}
