package endpoints

import (
	"log"

	"helium-admin-backend/internal/changefeed"
)

// publishFeed emits a row change to the live dashboards. The feed is a
// best-effort push channel; when it is down clients fall back to manual
// refresh, so failures are logged and swallowed.
func publishFeed(table string, kind changefeed.EventKind, oldRow, newRow any) {
	if err := changefeed.Publish(table, kind, oldRow, newRow); err != nil {
		log.Printf("feed publish %s %s: %v", table, kind, err)
	}
}
