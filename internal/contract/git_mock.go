package contract

import (
	"context"

	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/mock"
)

// --- MockGitClient Implementation ---

// MockGitClient is a testify mock for the GitClient type.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	mockArgs := []any{ctx, repoPath}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// GetRemoteURL implements the GitClient interface.
func (m *MockGitClient) GetRemoteURL(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// GetUserEmail implements the GitClient interface.
func (m *MockGitClient) GetUserEmail(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// GetCommitLog implements the GitClient interface.
func (m *MockGitClient) GetCommitLog(ctx context.Context, repoPath string, authors []string, lookbackMonths int) ([]byte, error) {
	ret := m.Called(ctx, repoPath, authors, lookbackMonths)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// GetNumstat implements the GitClient interface.
func (m *MockGitClient) GetNumstat(ctx context.Context, repoPath string, commitID string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, commitID)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// GetCommitDiff implements the GitClient interface.
func (m *MockGitClient) GetCommitDiff(ctx context.Context, repoPath string, commitID string, srcPrefix, dstPrefix string, files []string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, commitID, srcPrefix, dstPrefix, files)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// ListAuthors implements the GitClient interface.
func (m *MockGitClient) ListAuthors(ctx context.Context, repoPath string, lookbackMonths int) ([]byte, error) {
	ret := m.Called(ctx, repoPath, lookbackMonths)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// --- MockSkillClassifier Implementation ---

// MockSkillClassifier is a testify mock for the SkillClassifier type.
type MockSkillClassifier struct {
	mock.Mock
	ModelTag  string
	ModelType schema.ModelType
}

var _ SkillClassifier = &MockSkillClassifier{} // Compile-time check

// Tag implements the SkillClassifier interface.
func (m *MockSkillClassifier) Tag() string { return m.ModelTag }

// Type implements the SkillClassifier interface.
func (m *MockSkillClassifier) Type() schema.ModelType { return m.ModelType }

// Classify implements the SkillClassifier interface.
func (m *MockSkillClassifier) Classify(ctx context.Context, inputs []string, limit int) ([][]schema.Prediction, error) {
	ret := m.Called(ctx, inputs, limit)
	out, _ := ret.Get(0).([][]schema.Prediction)
	return out, ret.Error(1)
}

// Close implements the SkillClassifier interface.
func (m *MockSkillClassifier) Close() error {
	return m.Called().Error(0)
}
