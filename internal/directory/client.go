// Package directory provides read-only connectivity to the organization's
// MS SQL employee directory. It is optional and only used to enrich posts
// with the author's department in the discover feed.
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
)

// Client provides read-only access to the MS SQL employee directory.
// It manages connection pooling and query timeouts.
type Client struct {
	db           *sql.DB
	config       *config.DirectoryConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// Employee is a single directory record
type Employee struct {
	ObjectID    string
	DisplayName string
	Department  string
	JobTitle    string
}

// NewClient creates a new directory client with the given configuration.
// Returns nil if the directory is not enabled or not configured.
func NewClient(cfg *config.DirectoryConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("directory connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("directory enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	var db *sql.DB
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		db, err = sql.Open("sqlserver", connStr)
		if err != nil {
			logger.Warn("failed to open directory connection",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		pingCtx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			break
		}

		logger.Warn("failed to ping directory",
			zap.Error(err),
			zap.Int("attempt", attempt),
		)
		_ = db.Close()
		db = nil
		if attempt < defaultMaxRetries {
			time.Sleep(backoff)
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}
	}

	if db == nil {
		return nil, fmt.Errorf("failed to connect to directory after %d attempts: %w", defaultMaxRetries, err)
	}

	logger.Info("directory connected",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("query_timeout_seconds", cfg.QueryTimeout),
	)

	return &Client{
		db:           db,
		config:       cfg,
		logger:       logger,
		queryTimeout: cfg.QueryTimeoutDuration(),
	}, nil
}

// IsEnabled reports whether the client holds a live connection
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// GetEmployeesByObjectIDs looks up directory records for the given AAD
// object ids. Missing ids are simply absent from the result map.
func (c *Client) GetEmployeesByObjectIDs(ctx context.Context, objectIDs []string) (map[string]Employee, error) {
	result := make(map[string]Employee)
	if !c.IsEnabled() || len(objectIDs) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	placeholders := make([]string, len(objectIDs))
	args := make([]interface{}, len(objectIDs))
	for i, id := range objectIDs {
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(
		"SELECT aad_object_id, display_name, department, job_title FROM employees WHERE aad_object_id IN (%s)",
		strings.Join(placeholders, ", "),
	)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("directory query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var emp Employee
		var department, jobTitle sql.NullString
		if err := rows.Scan(&emp.ObjectID, &emp.DisplayName, &department, &jobTitle); err != nil {
			return nil, fmt.Errorf("failed to scan directory row: %w", err)
		}
		emp.Department = department.String
		emp.JobTitle = jobTitle.String
		result[emp.ObjectID] = emp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory row iteration failed: %w", err)
	}

	return result, nil
}

// HealthCheck pings the directory with a short timeout
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsEnabled() {
		return fmt.Errorf("directory not connected")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultHealthCheckTimeout)
	defer cancel()
	return c.db.PingContext(ctx)
}

// Close releases the connection pool
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// buildConnectionString converts host:port/database plus credentials into
// a sqlserver connection URL
func buildConnectionString(cfg *config.DirectoryConfig) (string, error) {
	parts := strings.SplitN(cfg.URL, "/", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("directory URL must be in host:port/database format, got %q", cfg.URL)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     parts[0],
		RawQuery: url.Values{"database": {parts[1]}, "encrypt": {"true"}}.Encode(),
	}
	return u.String(), nil
}
