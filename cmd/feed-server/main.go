package main

import (
	"log"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/router"
	"helium-admin-backend/internal/changefeed"
	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/model"
	"helium-admin-backend/internal/queue"
)

func main() {
	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	hub := changefeed.NewHub()
	go hub.Run()
	handler := changefeed.NewHandler(hub)

	for _, table := range []string{
		model.FeedWaitlist,
		model.FeedInviteCodes,
		model.FeedUserProfiles,
		model.FeedSubscriptions,
		model.FeedCreditPurchases,
		model.FeedCreditBalances,
		model.FeedCreditUsage,
		model.FeedUsageLogs,
		model.FeedEmailBatches,
	} {
		handler.OpenTable(table)
	}

	server := api.NewAPIServer(
		":83",
		queueManager,
		db,
		handler,
		router.UtilsRoutes("/api/feed/v1"),
		router.FeedRoutes("/api/feed/v1"),
	)

	server.Run()
}
