// ABOUTME: Safe SQL query builder shared by the SQLite cache and article storage
// ABOUTME: Validates identifiers and keeps every value parameterized

package sqlbuilder

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Logger is the minimal logging surface the validators need
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// Table and column name validation - only alphanumeric, underscore allowed
var (
	safeNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

	// MaxKeyLength fits long feed URLs with a key prefix
	MaxKeyLength = 2048
	// MaxValueLength bounds a single stored blob
	MaxValueLength = 4 * 1024 * 1024
)

var allowedOperators = map[string]bool{
	"=":  true,
	"!=": true,
	">":  true,
	"<":  true,
	">=": true,
	"<=": true,
}

// QueryBuilder builds parameterized statements. The first invalid identifier
// or operator is recorded and returned by Build.
type QueryBuilder struct {
	query  strings.Builder
	params []interface{}
	where  bool
	err    error
}

// New creates a new query builder instance
func New() *QueryBuilder {
	return &QueryBuilder{params: make([]interface{}, 0)}
}

func validateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("name too long: %s (max 64 characters)", name)
	}
	if !safeNamePattern.MatchString(name) {
		return fmt.Errorf("invalid name: %s (only alphanumeric and underscore allowed)", name)
	}
	return nil
}

func (qb *QueryBuilder) check(names ...string) bool {
	if qb.err != nil {
		return false
	}
	for _, name := range names {
		if err := validateName(name); err != nil {
			qb.err = err
			return false
		}
	}
	return true
}

// Select builds a SELECT query; no columns selects *
func (qb *QueryBuilder) Select(columns ...string) *QueryBuilder {
	if !qb.check(columns...) {
		return qb
	}
	if len(columns) == 0 {
		qb.query.WriteString("SELECT * ")
	} else {
		qb.query.WriteString("SELECT " + strings.Join(columns, ", ") + " ")
	}
	return qb
}

// From adds FROM clause
func (qb *QueryBuilder) From(table string) *QueryBuilder {
	if qb.check(table) {
		qb.query.WriteString("FROM " + table + " ")
	}
	return qb
}

// Where adds a parameterized condition; repeated calls are joined with AND
func (qb *QueryBuilder) Where(column string, operator string, value interface{}) *QueryBuilder {
	if !qb.check(column) {
		return qb
	}
	if !allowedOperators[operator] {
		qb.err = fmt.Errorf("invalid operator: %q", operator)
		return qb
	}

	if qb.where {
		qb.query.WriteString("AND ")
	} else {
		qb.query.WriteString("WHERE ")
		qb.where = true
	}
	qb.query.WriteString(column + " " + operator + " ? ")
	qb.params = append(qb.params, value)
	return qb
}

// OrderBy adds an ORDER BY clause
func (qb *QueryBuilder) OrderBy(column string, desc bool) *QueryBuilder {
	if !qb.check(column) {
		return qb
	}
	qb.query.WriteString("ORDER BY " + column)
	if desc {
		qb.query.WriteString(" DESC")
	}
	qb.query.WriteString(" ")
	return qb
}

// Limit adds a parameterized LIMIT clause
func (qb *QueryBuilder) Limit(value interface{}) *QueryBuilder {
	if qb.err != nil {
		return qb
	}
	qb.query.WriteString("LIMIT ? ")
	qb.params = append(qb.params, value)
	return qb
}

// InsertOrReplace builds an INSERT OR REPLACE query
func (qb *QueryBuilder) InsertOrReplace(table string) *QueryBuilder {
	if qb.check(table) {
		qb.query.WriteString("INSERT OR REPLACE INTO " + table + " ")
	}
	return qb
}

// Values adds the column list and one placeholder per value
func (qb *QueryBuilder) Values(columns []string, values []interface{}) *QueryBuilder {
	if len(columns) != len(values) {
		if qb.err == nil {
			qb.err = fmt.Errorf("%d columns but %d values", len(columns), len(values))
		}
		return qb
	}
	if len(columns) == 0 {
		if qb.err == nil {
			qb.err = errors.New("no columns")
		}
		return qb
	}
	if !qb.check(columns...) {
		return qb
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	qb.query.WriteString("(" + strings.Join(columns, ", ") + ") VALUES (" + placeholders + ")")
	qb.params = append(qb.params, values...)
	return qb
}

// Delete builds a DELETE query
func (qb *QueryBuilder) Delete(table string) *QueryBuilder {
	if qb.check(table) {
		qb.query.WriteString("DELETE FROM " + table + " ")
	}
	return qb
}

// Build returns the statement and its parameters, or the first validation error
func (qb *QueryBuilder) Build() (string, []interface{}, error) {
	if qb.err != nil {
		return "", nil, qb.err
	}
	return strings.TrimSpace(qb.query.String()), qb.params, nil
}

// MustBuild is Build for statements made only of constant identifiers
func (qb *QueryBuilder) MustBuild() string {
	query, _, err := qb.Build()
	if err != nil {
		panic(err)
	}
	return query
}

// ValidateKey validates a key before it is used as a query parameter.
// Keys are always bound as parameters; suspicious patterns are only logged.
func ValidateKey(key string, logger Logger) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key too long: max %d characters", MaxKeyLength)
	}
	if strings.Contains(key, "\x00") {
		return errors.New("key cannot contain null bytes")
	}

	if logger == nil {
		return nil
	}
	for _, pattern := range []string{"--", "/*", "*/", ";", "'", "\"", "\\", "\n", "\r"} {
		if strings.Contains(key, pattern) {
			logger.Warn("Suspicious pattern detected in key", map[string]interface{}{
				"pattern":     pattern,
				"key_length":  len(key),
				"key_preview": truncateKey(key),
			})
		}
	}
	return nil
}

// truncateKey returns a safe preview of the key for logging
func truncateKey(key string) string {
	const maxPreview = 50
	if len(key) <= maxPreview {
		return key
	}
	return key[:maxPreview] + "..."
}

// ValidateValue validates a stored value
func ValidateValue(value []byte) error {
	if len(value) == 0 {
		return errors.New("value cannot be empty")
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("value too large: max %d bytes", MaxValueLength)
	}
	return nil
}
