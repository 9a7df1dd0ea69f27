// Package risk maintains per-customer risk profiles. Scores accumulate
// monotonically: detectors propose deltas during a cycle and the engine
// applies them only after every detector has run, so no detector observes a
// partially updated profile from its own cycle.
package risk

import (
	"sync"
	"time"
)

// recentTransactionLimit bounds the per-customer transaction window.
const recentTransactionLimit = 50

// Transaction is one POS observation attributed to a customer.
type Transaction struct {
	StationID string    `json:"station_id"`
	SKU       string    `json:"sku"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Profile is the accumulated risk state for one customer. RiskScore stays in
// [0,1] and never decreases except through an explicit Reset.
type Profile struct {
	CustomerID         string         `json:"customer_id"`
	RiskScore          float64        `json:"risk_score"`
	AnomalyCount       int            `json:"anomaly_count"`
	RecentTransactions []Transaction  `json:"recent_transactions,omitempty"`
	StationPreferences map[string]int `json:"station_preferences,omitempty"`
}

// clone returns a deep copy so callers can read without holding the lock.
func (p *Profile) clone() *Profile {
	out := &Profile{
		CustomerID:         p.CustomerID,
		RiskScore:          p.RiskScore,
		AnomalyCount:       p.AnomalyCount,
		RecentTransactions: make([]Transaction, len(p.RecentTransactions)),
		StationPreferences: make(map[string]int, len(p.StationPreferences)),
	}
	copy(out.RecentTransactions, p.RecentTransactions)
	for station, n := range p.StationPreferences {
		out.StationPreferences[station] = n
	}
	return out
}

// Delta is a risk update proposed by a detector, applied after the cycle.
type Delta struct {
	CustomerID string
	Score      float64 // added to RiskScore, result clamped to [0,1]
	Anomalies  int     // added to AnomalyCount
}

// Store maps customer identifiers to profiles. Profiles are created lazily
// on first reference and live for the process lifetime.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{profiles: make(map[string]*Profile)}
}

// Get returns a copy of the profile for a customer, zero-initialized when
// absent. It never errors.
func (s *Store) Get(customerID string) *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[customerID]; ok {
		return p.clone()
	}
	return &Profile{
		CustomerID:         customerID,
		StationPreferences: make(map[string]int),
	}
}

// Bump raises a customer's risk score by delta, clamping the result to
// [0,1]. Negative deltas are ignored; scores only come down via Reset.
func (s *Store) Bump(customerID string, delta float64) {
	if delta <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensure(customerID)
	p.RiskScore = clamp01(p.RiskScore + delta)
}

// Apply merges a batch of detector-proposed deltas.
func (s *Store) Apply(deltas []Delta) {
	if len(deltas) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range deltas {
		if d.CustomerID == "" {
			continue
		}
		p := s.ensure(d.CustomerID)
		if d.Score > 0 {
			p.RiskScore = clamp01(p.RiskScore + d.Score)
		}
		if d.Anomalies > 0 {
			p.AnomalyCount += d.Anomalies
		}
	}
}

// Reset clears a customer's risk score and anomaly count. This is the only
// way a score decreases.
func (s *Store) Reset(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[customerID]; ok {
		p.RiskScore = 0
		p.AnomalyCount = 0
	}
}

// RecordTransaction appends a POS observation to the customer's bounded
// window and counts the station preference.
func (s *Store) RecordTransaction(customerID string, tx Transaction) {
	if customerID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensure(customerID)
	p.RecentTransactions = append(p.RecentTransactions, tx)
	if len(p.RecentTransactions) > recentTransactionLimit {
		p.RecentTransactions = p.RecentTransactions[len(p.RecentTransactions)-recentTransactionLimit:]
	}
	p.StationPreferences[tx.StationID]++
}

// HighRisk returns copies of all profiles with a score above the threshold.
func (s *Store) HighRisk(threshold float64) []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, p := range s.profiles {
		if p.RiskScore > threshold {
			out = append(out, p.clone())
		}
	}
	return out
}

// Len returns the number of tracked customers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// ensure returns the live profile for a customer, creating it if needed.
// Callers must hold the write lock.
func (s *Store) ensure(customerID string) *Profile {
	p, ok := s.profiles[customerID]
	if !ok {
		p = &Profile{
			CustomerID:         customerID,
			StationPreferences: make(map[string]int),
		}
		s.profiles[customerID] = p
	}
	return p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
