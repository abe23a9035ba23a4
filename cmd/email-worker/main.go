package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/hibiken/asynq"

	"helium-admin-backend/internal/database"
	"helium-admin-backend/internal/env"
	emailservice "helium-admin-backend/internal/service/email"
	"helium-admin-backend/internal/worker"
)

func main() {
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	emails, err := newEmailService(db)
	if err != nil {
		log.Fatalf("email init failed: %v", err)
	}

	srv, err := worker.NewServer(
		log.Default(),
		asynq.RedisClientOpt{
			Addr:     env.Get(env.QueueRedisURL),
			Password: env.Get(env.QueueRedisPass),
		},
		10,
		emails,
	)
	if err != nil {
		log.Fatalf("worker init failed: %v", err)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.MetricsHandler())
		if err := http.ListenAndServe(":9100", mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}
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

	var assets emailservice.AssetStore
	if endpoint := env.Get(env.AssetEndpoint); endpoint != "" {
		assets, err = emailservice.NewMinioAssetStore(emailservice.MinioConfig{
			Endpoint:  endpoint,
			AccessKey: env.Get(env.AssetAccessKey),
			SecretKey: env.Get(env.AssetSecretKey),
			Bucket:    env.Get(env.AssetBucket),
			UseSSL:    true,
		})
		if err != nil {
			return nil, err
		}
	} else {
		assets = emailservice.LocalAssetStore{Dir: env.GetOrDefault(env.AssetLocalDir, "assets/email")}
	}

	return emailservice.New(db, sender, assets, env.Get(env.WebUrl)), nil
}
