// audit-purge deletes audit log rows older than the retention window.
// Run it as a scheduled job; the API itself never deletes audit rows.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   go run ./cmd/audit-purge -retention-days 365 [-dry-run]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/budget_backend/config"
	"bitbucket.org/mmdatafocus/budget_backend/models"
)

func main() {
	retentionDays := flag.Int("retention-days", 365, "delete audit rows older than this many days")
	dryRun := flag.Bool("dry-run", false, "count matching rows without deleting")
	flag.Parse()

	if *retentionDays <= 0 {
		fmt.Fprintln(os.Stderr, "-retention-days must be positive")
		os.Exit(1)
	}

	db := config.ConnectDatabaseWithRetry()
	cutoff := time.Now().UTC().AddDate(0, 0, -*retentionDays)

	if *dryRun {
		var count int64
		err := db.Model(&models.AuditLog{}).Where("created_at < ?", cutoff).Count(&count).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "count failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("dry run: %d audit rows older than %s\n", count, cutoff.Format(time.RFC3339))
		return
	}

	deleted, err := models.PurgeAuditLogs(db, cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "purge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("purged %d audit rows older than %s\n", deleted, cutoff.Format(time.RFC3339))
}
