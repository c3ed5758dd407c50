package rules

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRuleStore implements RuleStore backed by PostgreSQL, scoped
// to one court district. Triggers, conditions, and actions are stored
// as JSONB since only the engine ever interprets them.
type PostgresRuleStore struct {
	db         *sql.DB
	districtID string
}

// NewPostgresRuleStore creates a PostgreSQL-backed RuleStore for a district
func NewPostgresRuleStore(db *sql.DB, districtID string) *PostgresRuleStore {
	return &PostgresRuleStore{
		db:         db,
		districtID: districtID,
	}
}

const ruleColumns = `id, name, description, source, category, triggers, conditions, actions,
	priority, status, jurisdiction, citation, effective_date, expiration_date,
	supersedes_rule_id, created_at, updated_at, created_by`

// Add inserts a new rule into the database
func (s *PostgresRuleStore) Add(rule *Rule) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM rules WHERE id = $1 AND district_id = $2)
	`, rule.ID, s.districtID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if exists {
		return fmt.Errorf("rule %s: %w", rule.ID, ErrRuleExists)
	}

	triggers, conditions, actions, err := marshalRuleJSON(rule)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO rules (id, district_id, name, description, source, category,
			triggers, conditions, actions, priority, status, jurisdiction, citation,
			effective_date, expiration_date, supersedes_rule_id, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, rule.ID, s.districtID, rule.Name, rule.Description, rule.Source, rule.Category,
		triggers, conditions, actions, rule.Priority, rule.Status,
		nullString(rule.Jurisdiction), nullString(rule.Citation),
		rule.EffectiveDate, rule.ExpirationDate, nullString(rule.SupersedesRuleID),
		rule.CreatedAt, rule.UpdatedAt, nullString(rule.CreatedBy))
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

// Get retrieves a rule by ID
func (s *PostgresRuleStore) Get(id string) (*Rule, error) {
	row := s.db.QueryRow(`
		SELECT `+ruleColumns+`
		FROM rules
		WHERE id = $1 AND district_id = $2
	`, id, s.districtID)

	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s: %w", id, ErrRuleNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListActive returns all active rules for the district
func (s *PostgresRuleStore) ListActive() ([]*Rule, error) {
	return s.list(`
		SELECT ` + ruleColumns + `
		FROM rules
		WHERE district_id = $1 AND status = 'active'
		ORDER BY created_at ASC
	`)
}

// List returns every rule for the district regardless of status
func (s *PostgresRuleStore) List() ([]*Rule, error) {
	return s.list(`
		SELECT ` + ruleColumns + `
		FROM rules
		WHERE district_id = $1
		ORDER BY created_at ASC
	`)
}

func (s *PostgresRuleStore) list(query string) ([]*Rule, error) {
	rows, err := s.db.Query(query, s.districtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rulesList []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rulesList = append(rulesList, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rulesList, nil
}

// Update modifies an existing rule
func (s *PostgresRuleStore) Update(rule *Rule) error {
	existing, err := s.Get(rule.ID)
	if err != nil {
		return err
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()

	triggers, conditions, actions, err := marshalRuleJSON(rule)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE rules
		SET name = $1, description = $2, source = $3, category = $4,
			triggers = $5, conditions = $6, actions = $7, priority = $8, status = $9,
			jurisdiction = $10, citation = $11, effective_date = $12, expiration_date = $13,
			supersedes_rule_id = $14, updated_at = $15
		WHERE id = $16 AND district_id = $17
	`, rule.Name, rule.Description, rule.Source, rule.Category,
		triggers, conditions, actions, rule.Priority, rule.Status,
		nullString(rule.Jurisdiction), nullString(rule.Citation),
		rule.EffectiveDate, rule.ExpirationDate, nullString(rule.SupersedesRuleID),
		rule.UpdatedAt, rule.ID, s.districtID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, ErrRuleNotFound)
	}

	return nil
}

// Delete removes a rule from the database
func (s *PostgresRuleStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM rules
		WHERE id = $1 AND district_id = $2
	`, id, s.districtID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s: %w", id, ErrRuleNotFound)
	}

	return nil
}

// marshalRuleJSON serializes the JSONB columns of a rule.
func marshalRuleJSON(rule *Rule) (triggers, conditions, actions []byte, err error) {
	triggers, err = json.Marshal(rule.Triggers)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal triggers: %w", err)
	}
	conditions, err = json.Marshal(rule.Conditions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	actions, err = json.Marshal(rule.Actions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal actions: %w", err)
	}
	return triggers, conditions, actions, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRule reads one rule row, decoding the JSONB columns.
func scanRule(row rowScanner) (*Rule, error) {
	var rule Rule
	var triggers, conditions, actions []byte
	var jurisdiction, citation, supersedes, createdBy sql.NullString

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.Source, &rule.Category,
		&triggers, &conditions, &actions, &rule.Priority, &rule.Status,
		&jurisdiction, &citation, &rule.EffectiveDate, &rule.ExpirationDate,
		&supersedes, &rule.CreatedAt, &rule.UpdatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(triggers, &rule.Triggers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal triggers: %w", err)
	}
	if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal(actions, &rule.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	rule.Jurisdiction = jurisdiction.String
	rule.Citation = citation.String
	rule.SupersedesRuleID = supersedes.String
	rule.CreatedBy = createdBy.String

	return &rule, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
