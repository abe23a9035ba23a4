package main

import (
	"flag"
	"log"

	"helium-admin-backend/internal/db/migrate"
	"helium-admin-backend/internal/env"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	dsn := env.MustGet(env.UsageDatabaseURL)
	if err := migrate.Run(dsn, *direction); err != nil {
		log.Fatalf("migrate %s failed: %v", *direction, err)
	}
	log.Printf("migrate %s completed", *direction)
}
