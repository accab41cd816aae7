package tools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/Bzcasper/mcp-gateway/pkg/mcp"
)

const (
	// Database driver names.
	postgresDriver = "postgres"
	mysqlDriver    = "mysql"
	sqliteDriver   = "sqlite3"

	// CategoryDatabase groups the database tools.
	CategoryDatabase = "database"
)

// DatabaseClient handles read-only database queries.
type DatabaseClient struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// NewDatabaseClient creates a new database client with read-only access.
func NewDatabaseClient(connStr string, logger *slog.Logger) (result *DatabaseClient, err error) {
	if connStr == "" {
		err = errors.New("database connection string is required")
		return result, err
	}

	// Parse the connection string to determine the driver
	var driverName string
	switch {
	case strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://"):
		driverName = postgresDriver
		connStr = strings.Replace(connStr, "postgresql://", "postgres://", 1)
	case strings.Contains(connStr, "host=") && strings.Contains(connStr, "dbname="):
		// Already in lib/pq format
		driverName = postgresDriver
	case strings.HasPrefix(connStr, "mysql://"):
		driverName = mysqlDriver
		// Strip the mysql:// prefix for go-sql-driver/mysql
		connStr = strings.TrimPrefix(connStr, "mysql://")
	case strings.HasPrefix(connStr, "sqlite3://") || strings.HasPrefix(connStr, "sqlite://"):
		driverName = sqliteDriver
		connStr = strings.TrimPrefix(connStr, "sqlite3://")
		connStr = strings.TrimPrefix(connStr, "sqlite://")
	case strings.HasSuffix(connStr, ".db") || strings.HasSuffix(connStr, ".sqlite") || connStr == ":memory:":
		driverName = sqliteDriver
	default:
		err = errors.New("unsupported database connection string format (supports postgres://, mysql://, sqlite://)")
		return result, err
	}

	var db *sql.DB
	db, err = sql.Open(driverName, connStr)
	if err != nil {
		err = fmt.Errorf("failed to open database: %w", err)
		return result, err
	}

	// Configure connection pool for read-only access
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		err = fmt.Errorf("failed to ping database: %w", err)
		_ = db.Close()
		return result, err
	}

	logger.Info("database client initialized", slog.String("driver", driverName))

	result = &DatabaseClient{
		db:     db,
		driver: driverName,
		logger: logger,
	}

	return result, err
}

// Close closes the database connection.
func (c *DatabaseClient) Close() (err error) {
	if c.db != nil {
		err = c.db.Close()
	}
	return err
}

// QueryResult represents the result of a database query.
type QueryResult struct {
	Columns  []string                 `json:"columns"`
	Rows     []map[string]interface{} `json:"rows"`
	RowCount int                      `json:"row_count"`
	Duration string                   `json:"duration,omitempty"`
}

// validateReadOnlyQuery checks if a query is safe to execute (read-only).
func validateReadOnlyQuery(query string) (err error) {
	upperQuery := strings.ToUpper(strings.TrimSpace(query))

	forbiddenStarts := []string{
		"INSERT", "UPDATE", "DELETE", "DROP", "CREATE",
		"ALTER", "TRUNCATE", "GRANT", "REVOKE", "EXEC",
		"EXECUTE", "CALL", "MERGE", "REPLACE",
	}

	for _, keyword := range forbiddenStarts {
		if strings.HasPrefix(upperQuery, keyword) {
			err = fmt.Errorf("query contains forbidden keyword: %s", keyword)
			return err
		}
	}

	// Check for keywords in the middle of the query, ignoring trailing comments
	queryNoComments := upperQuery
	if idx := strings.Index(queryNoComments, "--"); idx != -1 {
		queryNoComments = queryNoComments[:idx]
	}
	if idx := strings.Index(queryNoComments, "/*"); idx != -1 {
		queryNoComments = queryNoComments[:idx]
	}

	for _, keyword := range forbiddenStarts {
		if strings.Contains(queryNoComments, " "+keyword+" ") {
			err = fmt.Errorf("query contains forbidden keyword: %s", keyword)
			return err
		}
	}

	validStarts := []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN"}
	for _, start := range validStarts {
		if strings.HasPrefix(upperQuery, start) {
			return err
		}
	}

	err = errors.New("only SELECT, WITH, SHOW, DESCRIBE, and EXPLAIN queries are allowed")
	return err
}

// ExecuteReadOnlyQuery executes a read-only SQL query.
func (c *DatabaseClient) ExecuteReadOnlyQuery(ctx context.Context, query string, maxRows int) (result QueryResult, err error) {
	startTime := time.Now()

	err = validateReadOnlyQuery(query)
	if err != nil {
		return result, err
	}

	if maxRows <= 0 || maxRows > 10000 {
		maxRows = 10000 // Hard limit
	}

	var rows *sql.Rows
	rows, err = c.db.QueryContext(ctx, query)
	if err != nil {
		c.logger.ErrorContext(ctx, "database query failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(startTime)),
		)
		err = fmt.Errorf("query failed: %w", err)
		return result, err
	}
	defer rows.Close()

	var columns []string
	columns, err = rows.Columns()
	if err != nil {
		err = fmt.Errorf("failed to get columns: %w", err)
		return result, err
	}
	result.Columns = columns

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	result.Rows = make([]map[string]interface{}, 0)
	rowCount := 0

	for rows.Next() && rowCount < maxRows {
		err = rows.Scan(valuePtrs...)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to scan row",
				slog.String("error", err.Error()),
			)
			continue
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			val := values[i]
			// Convert byte arrays to strings
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			// Convert time.Time to RFC3339 string
			if t, ok := val.(time.Time); ok {
				val = t.Format(time.RFC3339)
			}
			row[col] = val
		}
		result.Rows = append(result.Rows, row)
		rowCount++
	}

	err = rows.Err()
	if err != nil {
		err = fmt.Errorf("error iterating rows: %w", err)
		return result, err
	}

	result.RowCount = len(result.Rows)
	result.Duration = time.Since(startTime).String()

	c.logger.InfoContext(ctx, "database query completed",
		slog.String("query", query),
		slog.Int("rows", result.RowCount),
		slog.Duration("duration", time.Since(startTime)),
	)

	return result, err
}

// ListTables returns the table names visible to the connection.
func (c *DatabaseClient) ListTables(ctx context.Context) (tables []string, err error) {
	var query string
	switch c.driver {
	case postgresDriver:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name"
	case mysqlDriver:
		query = "SHOW TABLES"
	case sqliteDriver:
		query = "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"
	default:
		err = fmt.Errorf("unsupported driver: %s", c.driver)
		return tables, err
	}

	var rows *sql.Rows
	rows, err = c.db.QueryContext(ctx, query)
	if err != nil {
		err = fmt.Errorf("failed to list tables: %w", err)
		return tables, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			err = fmt.Errorf("failed to scan table name: %w", err)
			return tables, err
		}
		tables = append(tables, name)
	}

	err = rows.Err()
	return tables, err
}

// DatabaseProvider registers the database tools. The client may be nil when no
// database is configured; the tools stay registered and fail with an explicit
// error when called.
type DatabaseProvider struct {
	client *DatabaseClient
	logger *slog.Logger
}

// NewDatabaseProvider creates a new database tool provider.
func NewDatabaseProvider(client *DatabaseClient, logger *slog.Logger) (provider *DatabaseProvider) {
	provider = &DatabaseProvider{
		client: client,
		logger: logger,
	}
	return provider
}

// Register adds the database tools to the registry.
func (p *DatabaseProvider) Register(registry *mcp.Registry) {
	registry.Register(mcp.Tool{
		Name:        "query_database",
		Description: "Execute a read-only SQL query (SELECT, WITH, SHOW, DESCRIBE, EXPLAIN) against the configured database. Returns columns and rows as JSON.",
		Category:    CategoryDatabase,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "SQL query to execute. Must be read-only.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of rows to return (default: 100)",
					"default":     100,
					"minimum":     1,
					"maximum":     10000,
				},
			},
			"required": []string{"query"},
		},
	}, p.executeQuery)

	registry.Register(mcp.Tool{
		Name:        "list_tables",
		Description: "List the tables visible to the configured database connection.",
		Category:    CategoryDatabase,
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, p.executeListTables)
}

// executeQuery handles the query_database tool.
func (p *DatabaseProvider) executeQuery(ctx context.Context, args map[string]interface{}, _ *mcp.InvocationContext) (result interface{}, err error) {
	if p.client == nil {
		err = errors.New("database access not configured (MCP_DATABASE_URL not set)")
		return result, err
	}

	query, _ := args["query"].(string)
	limit := intArg(args, "limit", 100)

	result, err = p.client.ExecuteReadOnlyQuery(ctx, query, limit)
	return result, err
}

// executeListTables handles the list_tables tool.
func (p *DatabaseProvider) executeListTables(ctx context.Context, _ map[string]interface{}, _ *mcp.InvocationContext) (result interface{}, err error) {
	if p.client == nil {
		err = errors.New("database access not configured (MCP_DATABASE_URL not set)")
		return result, err
	}

	tables, err := p.client.ListTables(ctx)
	if err != nil {
		return result, err
	}

	result = map[string]interface{}{
		"tables": tables,
		"count":  len(tables),
	}
	return result, err
}
