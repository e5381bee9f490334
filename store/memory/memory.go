// Package memory provides an in-memory implementation of the payroll storage interfaces.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/warp/compensation-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps employees in insertion order. Tax rates live in the embedded
// table, which has its own lock.
type Memory struct {
	*payroll.TaxRateTable

	mu        sync.RWMutex
	employees []payroll.EmployeeRecord
	index     map[string]int
}

func NewMemory(rates ...payroll.TaxRateEntry) *Memory {
	return &Memory{
		TaxRateTable: payroll.NewTaxRateTable(rates...),
		index:        make(map[string]int),
	}
}

func (m *Memory) All(_ context.Context) ([]payroll.EmployeeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]payroll.EmployeeRecord, len(m.employees))
	copy(result, m.employees)
	return result, nil
}

func (m *Memory) Page(_ context.Context, offset, limit int) ([]payroll.EmployeeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if offset >= len(m.employees) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.employees) {
		end = len(m.employees)
	}
	result := make([]payroll.EmployeeRecord, end-offset)
	copy(result, m.employees[offset:end])
	return result, nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.employees), nil
}

func (m *Memory) FindByID(_ context.Context, id string) (payroll.EmployeeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return payroll.EmployeeRecord{}, payroll.ErrEmployeeNotFound
	}
	return m.employees[i], nil
}

func (m *Memory) FilterByCountry(_ context.Context, countryCode string) ([]payroll.EmployeeRecord, error) {
	return m.filter(func(r payroll.EmployeeRecord) bool {
		return r.CountryCode == countryCode
	}), nil
}

func (m *Memory) FilterByJobTitle(_ context.Context, jobTitle string) ([]payroll.EmployeeRecord, error) {
	want := strings.TrimSpace(jobTitle)
	return m.filter(func(r payroll.EmployeeRecord) bool {
		return strings.EqualFold(r.JobTitle, want)
	}), nil
}

func (m *Memory) filter(match func(payroll.EmployeeRecord) bool) []payroll.EmployeeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.EmployeeRecord
	for _, r := range m.employees {
		if match(r) {
			result = append(result, r)
		}
	}
	return result
}

// Save inserts or replaces. Replacing keeps the record's position.
func (m *Memory) Save(_ context.Context, rec payroll.EmployeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveLocked(rec)
	return nil
}

func (m *Memory) saveLocked(rec payroll.EmployeeRecord) {
	if i, ok := m.index[rec.ID]; ok {
		m.employees[i] = rec
		return
	}
	m.index[rec.ID] = len(m.employees)
	m.employees = append(m.employees, rec)
}

// Update runs fn on a copy of the record under the write lock.
func (m *Memory) Update(_ context.Context, id string, fn func(*payroll.EmployeeRecord) error) (payroll.EmployeeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return payroll.EmployeeRecord{}, payroll.ErrEmployeeNotFound
	}
	rec := m.employees[i]
	if err := fn(&rec); err != nil {
		return payroll.EmployeeRecord{}, err
	}
	rec.ID = id
	m.employees[i] = rec
	return rec, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return payroll.ErrEmployeeNotFound
	}
	m.employees = append(m.employees[:i], m.employees[i+1:]...)
	delete(m.index, id)
	for j := i; j < len(m.employees); j++ {
		m.index[m.employees[j].ID] = j
	}
	return nil
}

// Reset deletes every employee and tax rate.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	m.employees = nil
	m.index = make(map[string]int)
	m.mu.Unlock()

	m.TaxRateTable.Reset()
	return nil
}

var (
	_ payroll.EmployeeStore = (*Memory)(nil)
	_ payroll.TaxRateStore  = (*Memory)(nil)
)
