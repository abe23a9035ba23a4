package endpoints

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"helium-admin-backend/internal/changefeed"
	"helium-admin-backend/internal/model"
	creditservice "helium-admin-backend/internal/service/credit"
	emailservice "helium-admin-backend/internal/service/email"
	identityservice "helium-admin-backend/internal/service/identity"
	userservice "helium-admin-backend/internal/service/user"
)

type CreditEndpoints interface {
	Balances(http.ResponseWriter, *http.Request) error
	Purchases(http.ResponseWriter, *http.Request) error
	Usage(http.ResponseWriter, *http.Request) error
	Assign(http.ResponseWriter, *http.Request) error
}

type creditEndpoints struct {
	service  *creditservice.Service
	identity *identityservice.Service
	users    *userservice.Service
	emails   *emailservice.Service
}

func NewCreditEndpoints(service *creditservice.Service, identity *identityservice.Service, users *userservice.Service, emails *emailservice.Service) CreditEndpoints {
	return &creditEndpoints{
		service:  service,
		identity: identity,
		users:    users,
		emails:   emails,
	}
}

func (h *creditEndpoints) Balances(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleBalances,
	})
}

func (h *creditEndpoints) Purchases(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handlePurchases,
	})
}

func (h *creditEndpoints) Usage(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleUsage,
	})
}

func (h *creditEndpoints) Assign(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleAssign,
	})
}

type balanceRow struct {
	model.CreditBalanceItem
	UserEmail string `json:"user_email,omitempty"`
	UserName  string `json:"user_name,omitempty"`
}

type balancesResponse struct {
	Balances   []balanceRow `json:"balances"`
	TotalCount int          `json:"total_count"`
}

func (h *creditEndpoints) handleBalances(w http.ResponseWriter, r *http.Request) error {
	balances, err := h.service.Balances(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		return h.serviceError(err)
	}

	rows := make([]balanceRow, 0, len(balances))
	for _, balance := range balances {
		rows = append(rows, balanceRow{CreditBalanceItem: balance})
	}

	// Identity enrichment is best-effort: unresolved users keep the
	// placeholder name and the listing still renders.
	ids := make([]string, 0, len(balances))
	for _, balance := range balances {
		ids = append(ids, balance.UserID)
	}
	if resolved, err := h.identity.Resolve(r.Context(), ids); err != nil {
		log.Printf("credit balances: identity enrichment failed: %v", err)
	} else {
		byID := make(map[string]identityservice.ResolvedUser, len(resolved))
		for _, user := range resolved {
			byID[user.ID] = user
		}
		for i := range rows {
			if user, ok := byID[rows[i].UserID]; ok {
				rows[i].UserEmail = user.Email
				rows[i].UserName = user.FullName
			}
		}
	}

	return WriteJSON(w, http.StatusOK, balancesResponse{Balances: rows, TotalCount: len(rows)})
}

type purchasesResponse struct {
	Purchases  []model.CreditPurchaseItem `json:"purchases"`
	TotalCount int                        `json:"total_count"`
}

func (h *creditEndpoints) handlePurchases(w http.ResponseWriter, r *http.Request) error {
	purchases, err := h.service.Purchases(r.Context(), model.PurchaseStatus(r.URL.Query().Get("status")))
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, purchasesResponse{Purchases: purchases, TotalCount: len(purchases)})
}

type creditUsageResponse struct {
	Usage      []model.CreditUsageItem `json:"usage"`
	TotalCount int                     `json:"total_count"`
}

func (h *creditEndpoints) handleUsage(w http.ResponseWriter, r *http.Request) error {
	usage, err := h.service.Usage(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, creditUsageResponse{Usage: usage, TotalCount: len(usage)})
}

type assignRequest struct {
	UserID       string  `json:"user_id"`
	CreditsToAdd float64 `json:"credits_to_add"`
	Notes        string  `json:"notes"`
}

type assignResponse struct {
	Balance   model.CreditBalanceItem `json:"balance"`
	EmailSent bool                    `json:"email_sent"`
}

// handleAssign tops up a balance and tells the user. The email and the
// profile bookkeeping are courtesies: if either fails the credits are
// still assigned, so the failure is logged and the response says so.
func (h *creditEndpoints) handleAssign(w http.ResponseWriter, r *http.Request) error {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode assign request: %w", err),
		}
	}

	balance, err := h.service.Assign(r.Context(), creditservice.AssignParams{
		UserID: req.UserID,
		Amount: req.CreditsToAdd,
		Notes:  req.Notes,
	})
	if err != nil {
		return h.serviceError(err)
	}

	publishFeed(model.FeedCreditBalances, changefeed.EventUpdate, nil, balance)

	emailSent := false
	emails, err := h.identity.Emails(r.Context(), []string{req.UserID})
	if err != nil {
		log.Printf("assign credits: resolve email for %s: %v", req.UserID, err)
	} else if addr, ok := emails[req.UserID]; ok {
		sendErr := h.emails.Send(r.Context(), emailservice.SendParams{
			To:       addr,
			Template: emailservice.TemplateCredits,
		})
		if sendErr != nil {
			log.Printf("assign credits: send email to %s: %v", addr, sendErr)
		} else {
			emailSent = true
		}
	}

	if emailSent {
		now := time.Now().UTC().Format(time.RFC3339)
		if _, err := h.users.MergeMetadata(r.Context(), req.UserID, map[string]string{
			"credits_email_sent_at": now,
			"credits_assigned":      fmt.Sprintf("%.2f", req.CreditsToAdd),
		}); err != nil {
			log.Printf("assign credits: mark profile %s: %v", req.UserID, err)
		}
	}

	return WriteJSON(w, http.StatusOK, assignResponse{Balance: balance, EmailSent: emailSent})
}

func (h *creditEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	svcErr, ok := err.(*creditservice.Error)
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("credit service: %w", err),
		}
	}

	var logErr error
	if svcErr.Err != nil {
		logErr = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		logErr = svcErr
	}

	switch svcErr.Code {
	case creditservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: logErr}
	case creditservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: logErr}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: logErr}
	}
}
