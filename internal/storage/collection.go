package storage

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// entityTable describes how one team-scoped entity maps onto its table.
type entityTable[T any] struct {
	name    string
	columns []string
	// flag is is_active or is_archived; visible rows have flag == live.
	flag    string
	live    bool
	mutable map[string]colKind

	meta     func(*T) *Meta
	flagPtr  func(*T) *bool
	values   func(*T) []any
	dests    func(*T) []any
	validate func(*T) error
}

func (t entityTable[T]) selectColumns() string {
	cols := append([]string{"id", "team_id", "created_by", "created_at", "updated_at"}, t.columns...)
	cols = append(cols, t.flag)
	return strings.Join(cols, ", ")
}

// Collection is the store surface for one team-scoped entity.
type Collection[T any] struct {
	db *sql.DB
	t  entityTable[T]
}

// Name returns the table name.
func (c *Collection[T]) Name() string { return c.t.name }

func (c *Collection[T]) scan(row interface{ Scan(...any) error }) (T, error) {
	var v T
	m := c.t.meta(&v)
	var createdAt, updatedAt string
	dests := append([]any{&m.ID, &m.TeamID, &m.CreatedBy, &createdAt, &updatedAt}, c.t.dests(&v)...)
	dests = append(dests, c.t.flagPtr(&v))
	if err := row.Scan(dests...); err != nil {
		return v, err
	}
	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return v, fmt.Errorf("parsing created_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return v, fmt.Errorf("parsing updated_at: %w", err)
	}
	return v, nil
}

// List returns the visible rows of a team, newest first.
func (c *Collection[T]) List(teamID string) ([]T, error) {
	rows, err := c.db.Query(fmt.Sprintf(
		`SELECT %s FROM %s WHERE team_id = ? AND %s = ? ORDER BY created_at DESC, rowid DESC`,
		c.t.selectColumns(), c.t.name, c.t.flag,
	), teamID, c.t.live)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.t.name, err)
	}
	defer rows.Close()

	results := []T{}
	for rows.Next() {
		v, err := c.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c.t.name, err)
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

// Get returns one row by id, including soft-deleted rows.
func (c *Collection[T]) Get(id string) (T, error) {
	row := c.db.QueryRow(fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, c.t.selectColumns(), c.t.name), id)
	v, err := c.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		var zero T
		return zero, ErrNotFound
	}
	return v, err
}

// Create inserts v as a visible row. ID and timestamps are assigned here
// unless ID is already set.
func (c *Collection[T]) Create(v T) (T, error) {
	m := c.t.meta(&v)
	if strings.TrimSpace(m.TeamID) == "" {
		return v, fmt.Errorf("%s: %w: team_id is required", c.t.name, ErrInvalid)
	}
	if c.t.validate != nil {
		if err := c.t.validate(&v); err != nil {
			return v, fmt.Errorf("%s: %w", c.t.name, err)
		}
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	*c.t.flagPtr(&v) = c.t.live

	cols := append([]string{"id", "team_id", "created_by", "created_at", "updated_at"}, c.t.columns...)
	cols = append(cols, c.t.flag)
	args := append([]any{m.ID, m.TeamID, m.CreatedBy, formatTime(now), formatTime(now)}, c.t.values(&v)...)
	args = append(args, c.t.live)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, c.t.name, strings.Join(cols, ", "), placeholders)
	if _, err := c.db.Exec(query, args...); err != nil {
		return v, fmt.Errorf("inserting into %s: %w", c.t.name, err)
	}
	return v, nil
}

// Update applies a partial update of whitelisted columns and returns the
// updated row. Keys are column names.
func (c *Collection[T]) Update(id string, patch map[string]any) (T, error) {
	var zero T
	keys := make([]string, 0, len(patch))
	for k := range patch {
		if _, ok := c.t.mutable[k]; !ok && k != c.t.flag {
			return zero, fmt.Errorf("%s.%s: %w", c.t.name, k, ErrUnknownField)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		kind, ok := c.t.mutable[k]
		if !ok {
			kind = kindBool
		}
		v, err := kind.bind(patch[k])
		if err != nil {
			return zero, fmt.Errorf("%s.%s: %w", c.t.name, k, err)
		}
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	res, err := c.db.Exec(fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, c.t.name, strings.Join(sets, ", ")), args...)
	if err != nil {
		return zero, fmt.Errorf("updating %s: %w", c.t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return zero, err
	}
	if n == 0 {
		return zero, ErrNotFound
	}
	return c.Get(id)
}

// SoftDelete hides a row by flipping its flag. The row stays in the table.
func (c *Collection[T]) SoftDelete(id string) error {
	res, err := c.db.Exec(
		fmt.Sprintf(`UPDATE %s SET %s = ?, updated_at = ? WHERE id = ?`, c.t.name, c.t.flag),
		!c.t.live, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting from %s: %w", c.t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// colKind is the declared type of a patchable column.
type colKind int

const (
	kindText colKind = iota
	kindInt
	kindFloat
	kindBool
	kindJSONArray
)

func (k colKind) String() string {
	switch k {
	case kindInt:
		return "an integer"
	case kindFloat:
		return "a number"
	case kindBool:
		return "a boolean"
	case kindJSONArray:
		return "a JSON array"
	default:
		return "a string"
	}
}

// bind converts a decoded JSON value into a value SQLite can store in a
// column of kind k. Values that would not scan back are ErrInvalid.
func (k colKind) bind(v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: null is not allowed", ErrInvalid)
	}
	switch k {
	case kindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case kindInt:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) && math.Abs(x) <= 1<<53 {
				return int64(x), nil
			}
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return n, nil
			}
		}
	case kindFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case json.Number:
			if f, err := x.Float64(); err == nil {
				return f, nil
			}
		}
	case kindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case kindJSONArray:
		var raw []byte
		switch x := v.(type) {
		case string:
			raw = []byte(x)
		case json.RawMessage:
			raw = x
		case []any, []string:
			b, err := json.Marshal(x)
			if err != nil {
				return nil, fmt.Errorf("encoding value: %w", err)
			}
			raw = b
		}
		var arr []json.RawMessage
		if raw != nil && json.Unmarshal(raw, &arr) == nil && arr != nil {
			return string(bytes.TrimSpace(raw)), nil
		}
	}
	return nil, fmt.Errorf("%w: must be %s, got %s", ErrInvalid, k, describe(v))
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// jsonText scans a TEXT column holding JSON into a RawMessage.
type jsonText struct{ dst *json.RawMessage }

func (j jsonText) Scan(src any) error {
	switch s := src.(type) {
	case string:
		*j.dst = json.RawMessage(s)
	case []byte:
		*j.dst = append(json.RawMessage(nil), s...)
	case nil:
		*j.dst = json.RawMessage("[]")
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	return nil
}
