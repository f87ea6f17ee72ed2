// Package tools implements the audit agent's toolset: read-only SQL
// retrieval over the audit database plus the side-effecting alert,
// report, review, and email tools.
package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/awb-bank/audit-agent/pkg/agent"
)

// Querier is the slice of database/sql the SQL tools need. *sql.DB
// satisfies it; tests substitute a mock.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// maxResultRows caps rendered rows per query; the row count past the cap
// is summarized instead.
const maxResultRows = 20

var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE", "TRUNCATE", "GRANT",
}

// runSelect executes a read-only query and renders the result as a pipe
// table. Guard violations and database errors come back as result text
// so the model sees them as observations.
func runSelect(ctx context.Context, db Querier, query string) string {
	upper := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(upper, "SELECT") {
		return "Error: Only SELECT queries are allowed."
	}
	for _, kw := range forbiddenKeywords {
		if strings.Contains(upper, kw) {
			return "Error: Write operations or schema changes are not permitted."
		}
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "Database error: " + err.Error()
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "Database error: " + err.Error()
	}

	var rendered [][]string
	count := 0
	for rows.Next() {
		vals := make([]any, len(cols))
		for i := range vals {
			vals[i] = new(any)
		}
		if err := rows.Scan(vals...); err != nil {
			return "Database error: " + err.Error()
		}
		count++
		if count <= maxResultRows {
			cells := make([]string, len(cols))
			for i, v := range vals {
				cells[i] = renderCell(*(v.(*any)))
			}
			rendered = append(rendered, cells)
		}
	}
	if err := rows.Err(); err != nil {
		return "Database error: " + err.Error()
	}

	if count == 0 {
		return "Query returned no rows."
	}

	header := strings.Join(cols, " | ")
	lines := []string{header, strings.Repeat("-", len(header))}
	for _, cells := range rendered {
		lines = append(lines, strings.Join(cells, " | "))
	}
	if count > maxResultRows {
		lines = append(lines, fmt.Sprintf("... and %d more rows.", count-maxResultRows))
	}
	return strings.Join(lines, "\n")
}

func renderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

// UserIndex answers whether a user has any audit events. Every
// side-effecting tool checks it before acting so the agent cannot alert
// on invented users.
type UserIndex interface {
	UserExists(ctx context.Context, userID string) bool
}

// SQLUserIndex checks user existence against audit_events.
type SQLUserIndex struct {
	db Querier
}

// NewSQLUserIndex creates a UserIndex over the audit database.
func NewSQLUserIndex(db Querier) *SQLUserIndex {
	return &SQLUserIndex{db: db}
}

func (s *SQLUserIndex) UserExists(ctx context.Context, userID string) bool {
	result := runSelect(ctx, s.db,
		fmt.Sprintf("SELECT 1 FROM audit_events WHERE user_id = '%s' LIMIT 1", userID))
	return strings.Contains(result, "1") &&
		!strings.Contains(result, "No rows") &&
		!strings.Contains(result, "Error")
}

// QueryTool executes an arbitrary SELECT chosen by the model.
type QueryTool struct {
	db Querier
}

func NewQueryTool(db Querier) *QueryTool { return &QueryTool{db: db} }

func (t *QueryTool) Name() string { return "query_postgres" }

func (t *QueryTool) Description() string {
	return "Execute a SELECT query against the audit database. Always include LIMIT."
}

func (t *QueryTool) Call(ctx context.Context, args []agent.Value, kwargs map[string]agent.Value) (string, error) {
	bound, err := bindArgs([]string{"query"}, 1, args, kwargs)
	if err != nil {
		return "", err
	}
	query, err := stringArg(bound, "query")
	if err != nil {
		return "", err
	}
	return runSelect(ctx, t.db, query), nil
}

// ListTablesTool lists the public-schema tables.
type ListTablesTool struct {
	db Querier
}

func NewListTablesTool(db Querier) *ListTablesTool { return &ListTablesTool{db: db} }

func (t *ListTablesTool) Name() string { return "list_tables" }

func (t *ListTablesTool) Description() string {
	return "List all tables in the audit database. Call this first if unsure what exists."
}

func (t *ListTablesTool) Call(ctx context.Context, args []agent.Value, kwargs map[string]agent.Value) (string, error) {
	if _, err := bindArgs(nil, 0, args, kwargs); err != nil {
		return "", err
	}

	rows, err := t.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		return "Error listing tables: " + err.Error(), nil
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "Error listing tables: " + err.Error(), nil
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return "Error listing tables: " + err.Error(), nil
	}
	if len(names) == 0 {
		return "No tables found in public schema.", nil
	}
	return "Available tables: " + strings.Join(names, ", "), nil
}

// TableSchemaTool describes one table's columns.
type TableSchemaTool struct {
	db Querier
}

func NewTableSchemaTool(db Querier) *TableSchemaTool { return &TableSchemaTool{db: db} }

func (t *TableSchemaTool) Name() string { return "get_table_schema" }

func (t *TableSchemaTool) Description() string {
	return "Get the columns of a table before writing any SQL."
}

func (t *TableSchemaTool) Call(ctx context.Context, args []agent.Value, kwargs map[string]agent.Value) (string, error) {
	bound, err := bindArgs([]string{"table_name"}, 1, args, kwargs)
	if err != nil {
		return "", err
	}
	tableName, err := textArg(bound, "table_name")
	if err != nil {
		return "", err
	}

	rows, err := t.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = $1 ORDER BY ordinal_position`, tableName)
	if err != nil {
		return "Error getting schema: " + err.Error(), nil
	}
	defer rows.Close()

	lines := []string{
		fmt.Sprintf("Schema for '%s':", tableName),
		"Column | Type | Nullable",
		"------|------|---------",
	}
	found := false
	for rows.Next() {
		var col, dtype, nullable string
		if err := rows.Scan(&col, &dtype, &nullable); err != nil {
			return "Error getting schema: " + err.Error(), nil
		}
		found = true
		lines = append(lines, fmt.Sprintf("%s | %s | %s", col, dtype, nullable))
	}
	if err := rows.Err(); err != nil {
		return "Error getting schema: " + err.Error(), nil
	}
	if !found {
		return fmt.Sprintf("Table '%s' not found or no access.", tableName), nil
	}
	return strings.Join(lines, "\n"), nil
}

// DistinctStatusesTool reports the valid status values in audit_events.
type DistinctStatusesTool struct {
	db Querier
}

func NewDistinctStatusesTool(db Querier) *DistinctStatusesTool {
	return &DistinctStatusesTool{db: db}
}

func (t *DistinctStatusesTool) Name() string { return "get_distinct_statuses" }

func (t *DistinctStatusesTool) Description() string {
	return "Get the valid status values from audit_events."
}

func (t *DistinctStatusesTool) Call(ctx context.Context, args []agent.Value, kwargs map[string]agent.Value) (string, error) {
	if _, err := bindArgs(nil, 0, args, kwargs); err != nil {
		return "", err
	}
	return runSelect(ctx, t.db,
		"SELECT DISTINCT status FROM audit_events WHERE status IS NOT NULL"), nil
}
