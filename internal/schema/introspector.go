package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// Introspector answers questions about the physical database catalog.
// Repositories use it once to decide which schema generation is live.
type Introspector interface {
	TableExists(ctx context.Context, name string) (bool, error)
	ListTables(ctx context.Context, schemaName string) ([]string, error)
	DescribeTable(ctx context.Context, name string) ([]Column, error)
	SampleRows(ctx context.Context, name string, n int) ([]map[string]any, error)
}

// Column describes one column of a physical table.
type Column struct {
	Name         string
	DataType     string
	Nullable     bool
	IsPrimaryKey bool
	IsForeignKey bool
}

type pgIntrospector struct {
	pool *pgxpool.Pool
}

// NewIntrospector returns a Postgres catalog reader.
func NewIntrospector(pool *pgxpool.Pool) Introspector {
	return &pgIntrospector{pool: pool}
}

func (i *pgIntrospector) TableExists(ctx context.Context, name string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = current_schema() AND table_name = $1
        )`
	var exists bool
	if err := i.pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, apperrors.NewSchemaIntrospectionError(
			fmt.Sprintf("checking existence of table %s", name), err)
	}
	return exists, nil
}

func (i *pgIntrospector) ListTables(ctx context.Context, schemaName string) ([]string, error) {
	const query = `
        SELECT table_name FROM information_schema.tables
        WHERE table_schema = $1 AND table_type = 'BASE TABLE'
        ORDER BY table_name`
	rows, err := i.pool.Query(ctx, query, schemaName)
	if err != nil {
		return nil, apperrors.NewSchemaIntrospectionError("listing tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewSchemaIntrospectionError("listing tables", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewSchemaIntrospectionError("listing tables", err)
	}
	return tables, nil
}

func (i *pgIntrospector) DescribeTable(ctx context.Context, name string) ([]Column, error) {
	const query = `
        SELECT c.column_name,
               c.data_type,
               c.is_nullable = 'YES',
               COALESCE(pk.is_pk, false),
               COALESCE(fk.is_fk, false)
        FROM information_schema.columns c
        LEFT JOIN (
            SELECT kcu.column_name, true AS is_pk
            FROM information_schema.table_constraints tc
            JOIN information_schema.key_column_usage kcu
              ON tc.constraint_name = kcu.constraint_name
            WHERE tc.table_name = $1 AND tc.constraint_type = 'PRIMARY KEY'
        ) pk ON pk.column_name = c.column_name
        LEFT JOIN (
            SELECT kcu.column_name, true AS is_fk
            FROM information_schema.table_constraints tc
            JOIN information_schema.key_column_usage kcu
              ON tc.constraint_name = kcu.constraint_name
            WHERE tc.table_name = $1 AND tc.constraint_type = 'FOREIGN KEY'
        ) fk ON fk.column_name = c.column_name
        WHERE c.table_name = $1 AND c.table_schema = current_schema()
        ORDER BY c.ordinal_position`
	rows, err := i.pool.Query(ctx, query, name)
	if err != nil {
		return nil, apperrors.NewSchemaIntrospectionError(
			fmt.Sprintf("describing table %s", name), err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.IsPrimaryKey, &col.IsForeignKey); err != nil {
			return nil, apperrors.NewSchemaIntrospectionError(
				fmt.Sprintf("describing table %s", name), err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewSchemaIntrospectionError(
			fmt.Sprintf("describing table %s", name), err)
	}
	return columns, nil
}

func (i *pgIntrospector) SampleRows(ctx context.Context, name string, n int) ([]map[string]any, error) {
	if n <= 0 {
		n = 5
	}
	// Table name comes from the static destination registry or the
	// migrations, never from user input.
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", name, n)
	rows, err := i.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewSchemaIntrospectionError(
			fmt.Sprintf("sampling rows from %s", name), err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var samples []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, apperrors.NewSchemaIntrospectionError(
				fmt.Sprintf("sampling rows from %s", name), err)
		}
		sample := make(map[string]any, len(fields))
		for idx, field := range fields {
			sample[string(field.Name)] = values[idx]
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewSchemaIntrospectionError(
			fmt.Sprintf("sampling rows from %s", name), err)
	}
	return samples, nil
}
