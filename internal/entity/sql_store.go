/*-------------------------------------------------------------------------
 *
 * sql_store.go
 *    PostgreSQL-backed entity store for NeuronChat
 *
 * Maps orchestrator entity models to host tables through an explicit
 * model-to-table registry; dynamic identifiers are validated before
 * they reach SQL.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/entity/sql_store.go
 *
 *-------------------------------------------------------------------------
 */

package entity

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/neurondb/NeuronChat/pkg/neurondb"
)

/* SQLStore resolves entities against host tables */
type SQLStore struct {
	db     *sqlx.DB
	tables map[string]string /* model name -> table name */
}

/* NewSQLStore creates a store with an explicit model-to-table mapping */
func NewSQLStore(db *sqlx.DB, tables map[string]string) *SQLStore {
	return &SQLStore{db: db, tables: tables}
}

func (s *SQLStore) table(model string) (string, error) {
	table, ok := s.tables[model]
	if !ok {
		return "", fmt.Errorf("entity lookup failed: unknown_model='%s'", model)
	}
	if err := neurondb.ValidateSQLIdentifier(table, "table"); err != nil {
		return "", fmt.Errorf("entity lookup failed: model='%s', %w", model, err)
	}
	return table, nil
}

/* Find looks up one entity by a search key, nil when absent */
func (s *SQLStore) Find(ctx context.Context, model, key string, value interface{}) (Record, error) {
	table, err := s.table(model)
	if err != nil {
		return nil, err
	}
	if err := neurondb.ValidateSQLIdentifier(key, "search_key"); err != nil {
		return nil, fmt.Errorf("entity lookup failed: model='%s', %w", model, err)
	}

	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s::text ILIKE $1 LIMIT 1`,
		neurondb.EscapeSQLIdentifier(table), neurondb.EscapeSQLIdentifier(key))

	row := s.db.QueryRowxContext(ctx, query, fmt.Sprintf("%v", value))
	record := make(Record)
	if err := row.MapScan(record); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("entity lookup failed: model='%s', key='%s', error=%w", model, key, err)
	}
	normalizeBytes(record)
	return record, nil
}

/* Create inserts a new entity with the collected fields */
func (s *SQLStore) Create(ctx context.Context, model string, fields map[string]interface{}) (Record, error) {
	table, err := s.table(model)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("entity creation failed: model='%s', fields_empty=true", model)
	}

	columns := make([]string, 0, len(fields))
	for column := range fields {
		if err := neurondb.ValidateSQLIdentifier(column, "column"); err != nil {
			return nil, fmt.Errorf("entity creation failed: model='%s', %w", model, err)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	values := make([]interface{}, len(columns))
	for i, column := range columns {
		quoted[i] = neurondb.EscapeSQLIdentifier(column)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		values[i] = fields[column]
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING *`,
		neurondb.EscapeSQLIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	row := s.db.QueryRowxContext(ctx, query, values...)
	record := make(Record)
	if err := row.MapScan(record); err != nil {
		return nil, fmt.Errorf("entity creation failed: model='%s', column_count=%d, error=%w", model, len(columns), err)
	}
	normalizeBytes(record)
	return record, nil
}

/* normalizeBytes converts []byte values from MapScan into strings */
func normalizeBytes(record Record) {
	for k, v := range record {
		if b, ok := v.([]byte); ok {
			record[k] = string(b)
		}
	}
}
