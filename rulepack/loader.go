// Package rulepack loads district rule packs from YAML: court rules
// plus an optional holiday calendar, ready to seed a district's store.
package rulepack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/docketops/courtrules/rules"
)

// Pack is one parsed rule pack.
type Pack struct {
	District string
	Rules    []*rules.Rule
	Holidays []rules.FederalHoliday
}

type packFile struct {
	District string        `yaml:"district"`
	Rules    []ruleEntry   `yaml:"rules"`
	Holidays []holidayItem `yaml:"holidays"`
}

type ruleEntry struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description"`
	Source         string          `yaml:"source"`
	Category       string          `yaml:"category"`
	Triggers       []string        `yaml:"triggers"`
	Conditions     *conditionEntry `yaml:"conditions"`
	Actions        []actionEntry   `yaml:"actions"`
	Priority       string          `yaml:"priority"`
	Status         string          `yaml:"status"`
	Jurisdiction   string          `yaml:"jurisdiction"`
	Citation       string          `yaml:"citation"`
	EffectiveDate  string          `yaml:"effective_date"`
	ExpirationDate string          `yaml:"expiration_date"`
}

type conditionEntry struct {
	Type       string           `yaml:"type"`
	Field      string           `yaml:"field"`
	Value      string           `yaml:"value"`
	Conditions []conditionEntry `yaml:"conditions"`
	Condition  *conditionEntry  `yaml:"condition"`
}

type actionEntry struct {
	Type            string   `yaml:"type"`
	Description     string   `yaml:"description"`
	DaysFromTrigger int      `yaml:"days_from_trigger"`
	Fields          []string `yaml:"fields"`
	Recipient       string   `yaml:"recipient"`
	Message         string   `yaml:"message"`
	Reason          string   `yaml:"reason"`
	AmountCents     int64    `yaml:"amount_cents"`
}

type holidayItem struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

const dateLayout = "2006-01-02"

// Load parses one rule pack from the reader. Rules without an ID get a
// fresh UUID; priority defaults to federal_rule and status to draft, so
// loaded rules never fire until explicitly activated.
func Load(r io.Reader) (*Pack, error) {
	var file packFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse rule pack: %w", err)
	}

	pack := &Pack{District: file.District}

	now := time.Now()
	for i, entry := range file.Rules {
		rule, err := buildRule(entry, now)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, entry.Name, err)
		}
		pack.Rules = append(pack.Rules, rule)
	}

	for i, h := range file.Holidays {
		d, err := time.Parse(dateLayout, h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %d (%s): invalid date %q", i, h.Name, h.Date)
		}
		pack.Holidays = append(pack.Holidays, rules.FederalHoliday{
			Date: rules.Day(d),
			Name: h.Name,
		})
	}
	sort.Slice(pack.Holidays, func(i, j int) bool {
		return pack.Holidays[i].Date.Before(pack.Holidays[j].Date)
	})

	return pack, nil
}

// LoadDir loads every *.yaml and *.yml file in a directory, sorted by
// file name.
func LoadDir(dir string) ([]*Pack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule pack directory: %w", err)
	}

	var packs []*Pack
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", entry.Name(), err)
		}
		pack, err := Load(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

func buildRule(entry ruleEntry, now time.Time) (*rules.Rule, error) {
	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}

	priority := rules.Priority(entry.Priority)
	if entry.Priority == "" {
		priority = rules.PriorityFederalRule
	}
	status := rules.Status(entry.Status)
	if entry.Status == "" {
		status = rules.StatusDraft
	}

	rule := &rules.Rule{
		ID:           id,
		Name:         entry.Name,
		Description:  entry.Description,
		Source:       rules.Source(entry.Source),
		Category:     rules.Category(entry.Category),
		Conditions:   buildCondition(entry.Conditions),
		Priority:     priority,
		Status:       status,
		Jurisdiction: entry.Jurisdiction,
		Citation:     entry.Citation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, t := range entry.Triggers {
		rule.Triggers = append(rule.Triggers, rules.TriggerEvent(t))
	}
	for _, a := range entry.Actions {
		rule.Actions = append(rule.Actions, rules.Action{
			Type:            rules.ActionType(a.Type),
			Description:     a.Description,
			DaysFromTrigger: a.DaysFromTrigger,
			Fields:          a.Fields,
			Recipient:       a.Recipient,
			Message:         a.Message,
			Reason:          a.Reason,
			AmountCents:     a.AmountCents,
		})
	}

	if entry.EffectiveDate != "" {
		d, err := time.Parse(dateLayout, entry.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("invalid effective_date %q", entry.EffectiveDate)
		}
		d = rules.Day(d)
		rule.EffectiveDate = &d
	}
	if entry.ExpirationDate != "" {
		d, err := time.Parse(dateLayout, entry.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expiration_date %q", entry.ExpirationDate)
		}
		d = rules.Day(d)
		rule.ExpirationDate = &d
	}

	return rule, nil
}

func buildCondition(entry *conditionEntry) *rules.Condition {
	if entry == nil {
		return nil
	}
	cond := &rules.Condition{
		Type:      rules.ConditionType(entry.Type),
		Field:     entry.Field,
		Value:     entry.Value,
		Condition: buildCondition(entry.Condition),
	}
	for _, child := range entry.Conditions {
		c := child
		built := buildCondition(&c)
		cond.Conditions = append(cond.Conditions, *built)
	}
	return cond
}
