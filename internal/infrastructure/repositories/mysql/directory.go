package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"linkpulse/internal/core/domain"

	_ "github.com/go-sql-driver/mysql"
)

// Directory reads the device inventory and queue-to-subscription mapping
// from the back-office database. It implements both ports.DeviceDirectory
// and ports.QueueMappingStore.
type Directory struct {
	db *sql.DB
}

// Options tunes the database connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewDirectory opens the back-office database and verifies the connection.
func NewDirectory(dsn string, opts Options) (*Directory, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping failed: %w", err)
	}

	return &Directory{db: db}, nil
}

// ListActiveDevices returns every active device of the given vendor with its
// connection credentials. Inactive rows are filtered in SQL so the pool only
// ever sees devices it should track.
func (d *Directory) ListActiveDevices(ctx context.Context, vendor domain.Vendor) ([]*domain.Device, error) {
	const q = `
		SELECT id, title, host, api_port, username, password
		FROM network_devices
		WHERE vendor = ? AND active = 1`

	rows, err := d.db.QueryContext(ctx, q, string(vendor))
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		var (
			id       int64
			title    string
			host     sql.NullString
			port     sql.NullInt64
			username sql.NullString
			password sql.NullString
		)
		if err := rows.Scan(&id, &title, &host, &port, &username, &password); err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}
		devices = append(devices, &domain.Device{
			ID:       domain.DeviceID(strconv.FormatInt(id, 10)),
			Title:    title,
			Vendor:   vendor,
			Host:     host.String,
			Port:     int(port.Int64),
			Username: username.String,
			Password: password.String,
			Active:   true,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("device rows: %w", err)
	}
	return devices, nil
}

// QueueMappings returns the full queue name -> subscription table for one
// device. Provisioning keeps one queue per subscribed circuit, so the result
// is the authoritative snapshot for that device.
func (d *Directory) QueueMappings(ctx context.Context, id domain.DeviceID) (map[string]domain.SubscriptionID, error) {
	const q = `
		SELECT queue_name, subscription_id
		FROM subscription_queues
		WHERE device_id = ?`

	rows, err := d.db.QueryContext(ctx, q, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query queue mappings: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]domain.SubscriptionID)
	for rows.Next() {
		var (
			queue string
			sub   int64
		)
		if err := rows.Scan(&queue, &sub); err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}
		mapping[queue] = domain.SubscriptionID(strconv.FormatInt(sub, 10))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mapping rows: %w", err)
	}
	return mapping, nil
}

// Ping checks database health.
func (d *Directory) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (d *Directory) Close() error {
	return d.db.Close()
}
