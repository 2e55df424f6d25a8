package iocache

import (
	"time"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetCommitStore implements the CacheManager interface.
func (m *MockCacheManager) GetCommitStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetRunStore implements the CacheManager interface.
func (m *MockCacheManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, totalRepos int) error {
	return m.Called(runID, endTime, totalRepos).Error(0)
}

// RecordRepoOutcome implements the RunStore interface.
func (m *MockRunStore) RecordRepoOutcome(runID int64, outcome schema.RepoOutcome) error {
	return m.Called(runID, outcome).Error(0)
}

// RecordMonthlyStats implements the RunStore interface.
func (m *MockRunStore) RecordMonthlyStats(runID int64, repoKey string, user string, stats *schema.UserStats) error {
	return m.Called(runID, repoKey, user, stats).Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllRepoOutcomes implements the RunStore interface.
func (m *MockRunStore) GetAllRepoOutcomes() ([]schema.RepoOutcomeRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.RepoOutcomeRecord)
	return rows, args.Error(1)
}

// GetAllMonthlyStats implements the RunStore interface.
func (m *MockRunStore) GetAllMonthlyStats() ([]schema.MonthlyStatRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.MonthlyStatRecord)
	return rows, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	return m.Called().Error(0)
}
