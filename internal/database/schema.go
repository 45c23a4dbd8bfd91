package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by EnsureSchema.  remaining_capacity is
// guarded by a CHECK so no statement can drive it below zero, and tickets
// reference their event with RESTRICT so an event with sales cannot be
// deleted.  request_id is NULL when the client sent no idempotency key;
// NULLs do not collide under the unique key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
        id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        organizer_id       BIGINT UNSIGNED NOT NULL,
        title              VARCHAR(200)    NOT NULL,
        description        TEXT            NOT NULL,
        event_date         DATETIME        NOT NULL,
        venue              VARCHAR(200)    NOT NULL DEFAULT '',
        normal_price_cents BIGINT          NOT NULL,
        vip_price_cents    BIGINT          NOT NULL,
        remaining_capacity BIGINT          NOT NULL,
        created_at         DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at         DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_events_organizer (organizer_id),
        KEY idx_events_date (event_date),
        CONSTRAINT chk_events_capacity CHECK (remaining_capacity >= 0),
        CONSTRAINT chk_events_prices CHECK (normal_price_cents >= 0 AND vip_price_cents >= 0)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tickets (
        id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        event_id    BIGINT UNSIGNED NOT NULL,
        user_id     BIGINT UNSIGNED NOT NULL,
        category    VARCHAR(16)     NOT NULL,
        request_id  VARCHAR(64)     NULL,
        price_cents BIGINT          NOT NULL,
        created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_tickets_request (user_id, request_id),
        KEY idx_tickets_user (user_id, created_at),
        CONSTRAINT fk_tickets_event FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE RESTRICT
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema step %d: %w", i+1, err)
		}
	}
	return nil
}
