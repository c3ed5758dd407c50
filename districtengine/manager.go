package districtengine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/docketops/courtrules/rules"
)

// DistrictEngine wraps a rules.Engine with district metadata.
type DistrictEngine struct {
	DistrictID string
	Name       string
	Engine     *rules.Engine
}

// Manager holds one rules engine per court district. Each engine is
// scoped to its district's rule set and holiday calendar. Engines are
// created at load time and swapped atomically on reload.
type Manager struct {
	engines   map[string]*DistrictEngine
	db        *sql.DB
	redisAddr string // empty means in-memory rule caches
	log       *slog.Logger
	mu        sync.RWMutex
}

// NewManager creates a manager whose district engines use in-memory
// rule caches.
func NewManager(db *sql.DB, log *slog.Logger) *Manager {
	return &Manager{
		engines: make(map[string]*DistrictEngine),
		db:      db,
		log:     log,
	}
}

// NewManagerWithRedis creates a manager whose district engines cache
// their rule snapshots in Redis, for multi-instance deployments.
func NewManagerWithRedis(db *sql.DB, redisAddr string, log *slog.Logger) *Manager {
	m := NewManager(db, log)
	m.redisAddr = redisAddr
	return m
}

// LoadAllDistricts loads every district from the database and
// initializes its engine.
func (m *Manager) LoadAllDistricts(ctx context.Context) error {
	rows, err := m.db.Query(`SELECT id, name FROM districts ORDER BY name`)
	if err != nil {
		return fmt.Errorf("failed to fetch districts: %w", err)
	}
	defer rows.Close()

	type district struct{ id, name string }
	var districts []district
	for rows.Next() {
		var d district
		if err := rows.Scan(&d.id, &d.name); err != nil {
			return fmt.Errorf("failed to scan district row: %w", err)
		}
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating district rows: %w", err)
	}

	for _, d := range districts {
		if err := m.LoadDistrict(ctx, d.id, d.name); err != nil {
			return fmt.Errorf("failed to initialize district %s: %w", d.id, err)
		}
	}

	m.log.Info("districts loaded", slog.Int("count", len(districts)))
	return nil
}

// LoadDistrict creates (or replaces) the engine for one district,
// loading its rule set and holiday calendar.
func (m *Manager) LoadDistrict(ctx context.Context, districtID, name string) error {
	store := rules.NewPostgresRuleStore(m.db, districtID)

	var engine *rules.Engine
	var err error
	if m.redisAddr != "" {
		var cache *rules.RedisRulesCache
		cache, err = rules.NewRedisRulesCache(ctx, m.redisAddr, districtID, rules.DefaultCacheConfig())
		if err != nil {
			return fmt.Errorf("failed to connect rules cache: %w", err)
		}
		engine, err = rules.NewEngineWithCache(store, cache)
	} else {
		engine, err = rules.NewEngine(store)
	}
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	holidays, err := m.loadHolidays(districtID)
	if err != nil {
		return err
	}
	engine.SetHolidays(holidays)

	m.mu.Lock()
	m.engines[districtID] = &DistrictEngine{
		DistrictID: districtID,
		Name:       name,
		Engine:     engine,
	}
	m.mu.Unlock()

	m.log.Info("district engine ready",
		slog.String("district", districtID),
		slog.String("name", name),
		slog.Int("holidays", len(holidays)))
	return nil
}

// loadHolidays reads the district's court closure calendar. An empty
// calendar means the engine falls back to the generated federal list.
func (m *Manager) loadHolidays(districtID string) ([]rules.FederalHoliday, error) {
	rows, err := m.db.Query(`
		SELECT holiday_date, name
		FROM district_holidays
		WHERE district_id = $1
		ORDER BY holiday_date
	`, districtID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch district holidays: %w", err)
	}
	defer rows.Close()

	var holidays []rules.FederalHoliday
	for rows.Next() {
		var h rules.FederalHoliday
		if err := rows.Scan(&h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday row: %w", err)
		}
		h.Date = rules.Day(h.Date)
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holiday rows: %w", err)
	}

	return holidays, nil
}

// GetEngine retrieves the engine for a district.
func (m *Manager) GetEngine(districtID string) (*rules.Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	de, exists := m.engines[districtID]
	if !exists {
		return nil, fmt.Errorf("district %s not found", districtID)
	}

	return de.Engine, nil
}

// ReloadDistrict refreshes a district's rule snapshot and holiday
// calendar in place.
func (m *Manager) ReloadDistrict(districtID string) error {
	m.mu.RLock()
	de, exists := m.engines[districtID]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("district %s not found", districtID)
	}

	if err := de.Engine.RefreshRules(); err != nil {
		return fmt.Errorf("failed to refresh rules: %w", err)
	}

	holidays, err := m.loadHolidays(districtID)
	if err != nil {
		return err
	}
	de.Engine.SetHolidays(holidays)

	m.log.Info("district reloaded", slog.String("district", districtID))
	return nil
}

// ListDistricts returns all loaded districts.
func (m *Manager) ListDistricts() []*DistrictEngine {
	m.mu.RLock()
	defer m.mu.RUnlock()

	districts := make([]*DistrictEngine, 0, len(m.engines))
	for _, de := range m.engines {
		districts = append(districts, de)
	}
	return districts
}

// RemoveDistrict drops a district's engine from the manager. It does
// not delete the district from the database.
func (m *Manager) RemoveDistrict(districtID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.engines[districtID]; !exists {
		return fmt.Errorf("district %s not found", districtID)
	}

	delete(m.engines, districtID)
	return nil
}
