package main

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"helium-admin-backend/internal/api"
	"helium-admin-backend/internal/api/router"
	"helium-admin-backend/internal/database"
	pgdb "helium-admin-backend/internal/db"
	"helium-admin-backend/internal/entitysync"
	"helium-admin-backend/internal/env"
	"helium-admin-backend/internal/mailqueue"
	"helium-admin-backend/internal/queue"
	creditservice "helium-admin-backend/internal/service/credit"
	dashboardservice "helium-admin-backend/internal/service/dashboard"
	emailservice "helium-admin-backend/internal/service/email"
	invitecodeservice "helium-admin-backend/internal/service/invitecode"
	usageservice "helium-admin-backend/internal/service/usage"
)

const prefix = "/api/admin/v1"

func main() {
	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	usageDB, err := pgdb.Open(env.MustGet(env.UsageDatabaseURL))
	if err != nil {
		log.Fatalf("usage db init failed: %v", err)
	}

	emails, err := newEmailService(db)
	if err != nil {
		log.Fatalf("email init failed: %v", err)
	}

	mailClient := mailqueue.NewClient(asynq.RedisClientOpt{
		Addr:     env.Get(env.QueueRedisURL),
		Password: env.Get(env.QueueRedisPass),
	})
	defer mailClient.Close()

	usage := usageservice.New(usageDB, creditservice.New(db), internalDomains())

	dash := newDashboard(db)
	go dash.Run(context.Background())

	server := api.NewAPIServer(
		":81",
		queueManager,
		db,
		nil,
		router.UtilsRoutes(prefix),
		router.AuthRoutes(prefix),
		router.WaitlistRoutes(prefix),
		router.InviteCodeRoutes(prefix, emails),
		router.UserRoutes(prefix),
		router.SubscriptionRoutes(prefix),
		router.CreditRoutes(prefix, emails),
		router.UsageRoutes(prefix, usage),
		router.EmailRoutes(prefix, emails, mailClient),
		router.DashboardRoutes(prefix, dash),
	)

	server.Run()
}

func newEmailService(db *database.Database) (*emailservice.Service, error) {
	port, err := strconv.Atoi(env.GetOrDefault(env.SMTPPort, "587"))
	if err != nil {
		return nil, err
	}

	sender, err := emailservice.NewSMTPSender(emailservice.SMTPConfig{
		Host:     env.Get(env.SMTPHost),
		Port:     port,
		Username: env.Get(env.SMTPUser),
		Password: env.Get(env.SMTPPass),
		From:     "Helium",
		Sender:   env.Get(env.SMTPFrom),
	})
	if err != nil {
		return nil, err
	}

	assets, err := newAssetStore()
	if err != nil {
		return nil, err
	}

	return emailservice.New(db, sender, assets, env.Get(env.WebUrl)), nil
}

func newAssetStore() (emailservice.AssetStore, error) {
	if endpoint := env.Get(env.AssetEndpoint); endpoint != "" {
		return emailservice.NewMinioAssetStore(emailservice.MinioConfig{
			Endpoint:  endpoint,
			AccessKey: env.Get(env.AssetAccessKey),
			SecretKey: env.Get(env.AssetSecretKey),
			Bucket:    env.Get(env.AssetBucket),
			UseSSL:    true,
		})
	}
	return emailservice.LocalAssetStore{Dir: env.GetOrDefault(env.AssetLocalDir, "assets/email")}, nil
}

func newDashboard(db *database.Database) *dashboardservice.Service {
	cacheRedis := redis.NewClient(&redis.Options{
		Addr:     env.Get(env.CacheRedisURL),
		Password: env.Get(env.CacheRedisPass),
		DB:       0,
	})
	feedRedis := redis.NewClient(&redis.Options{
		Addr:     env.Get(env.FeedRedisURL),
		Password: env.Get(env.FeedRedisPass),
		DB:       0,
	})

	return dashboardservice.New(
		invitecodeservice.New(db),
		entitysync.NewRedisStore(cacheRedis),
		entitysync.NewRedisFeed(feedRedis),
	)
}

func internalDomains() []string {
	var domains []string
	for _, domain := range strings.Split(env.Get(env.InternalDomains), ",") {
		if domain = strings.TrimSpace(domain); domain != "" {
			domains = append(domains, domain)
		}
	}
	return domains
}
