package contract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// initRepo creates a repository with one commit adding files and returns its path.
func initRepo(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	env := append(os.Environ(),
		"GIT_AUTHOR_NAME=Dev", "GIT_AUTHOR_EMAIL=dev@example.com",
		"GIT_COMMITTER_NAME=Dev", "GIT_COMMITTER_EMAIL=dev@example.com",
		"GIT_AUTHOR_DATE=2024-01-15T10:00:00Z", "GIT_COMMITTER_DATE=2024-01-15T10:00:00Z",
	)
	run := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("config", "user.email", "dev@example.com")
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("print('hi')\n"), 0o644))
		run("add", name)
	}
	run("commit", "-q", "-m", "init")
	return dir
}

func TestMockGitClient_Run(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()
	expectedErr := errors.New("mocked git error")

	mockClient.On("Run", ctx, "/path/to/repo", "log", "-1").Return([]byte("abc"), expectedErr).Once()

	out, err := mockClient.Run(ctx, "/path/to/repo", "log", "-1")
	assert.Equal(t, []byte("abc"), out)
	assert.Equal(t, expectedErr, err)
	mockClient.AssertExpectations(t)
}

func TestLocalGitClient_RejectsUnsafeBeforeSpawning(t *testing.T) {
	// The repo path does not exist, so any spawn would fail with a git error instead.
	client := NewLocalGitClient(time.Second)
	ctx := context.Background()

	_, err := client.Run(ctx, "/nonexistent", "log", "--author=x; rm -rf /")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsafeCommand)

	_, err = client.Run(ctx, "/nonexistent", "push", "origin")
	assert.ErrorIs(t, err, ErrUnsafeCommand)

	_, err = client.GetCommitLog(ctx, "/nonexistent", []string{"a@x.io && curl evil"}, 12)
	assert.ErrorIs(t, err, ErrUnsafeCommand)
}

func TestLocalGitClient_AgainstRealRepo(t *testing.T) {
	skipIfGitNotAvailable(t)
	dir := initRepo(t, "main.py")
	client := NewLocalGitClient(30 * time.Second)
	ctx := context.Background()

	root, err := client.GetRepoRoot(ctx, dir)
	require.NoError(t, err)
	resolved, _ := filepath.EvalSymlinks(dir)
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, resolved, resolvedRoot)

	email, err := client.GetUserEmail(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", email)

	out, err := client.GetCommitLog(ctx, dir, nil, 0)
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(string(out)), "\x01")
	require.Len(t, fields, 3)
	assert.Equal(t, "dev@example.com", fields[0])
	assert.Equal(t, "1705312800", fields[1])
	assert.Len(t, fields[2], 40)

	numstat, err := client.GetNumstat(ctx, dir, fields[2])
	require.NoError(t, err)
	assert.Equal(t, "1\t0\tmain.py", strings.TrimSpace(string(numstat)))

	diff, err := client.GetCommitDiff(ctx, dir, fields[2], "17", "42", []string{"main.py"})
	require.NoError(t, err)
	assert.Contains(t, string(diff), "diff --git 17/main.py 42/main.py")
	assert.Contains(t, string(diff), "+print('hi')")

	_, err = client.GetRemoteURL(ctx, dir)
	assert.Error(t, err, "no origin configured")
}

func TestLocalGitClient_KeepsNonASCIIPaths(t *testing.T) {
	skipIfGitNotAvailable(t)
	dir := initRepo(t, "données.py")
	client := NewLocalGitClient(30 * time.Second)
	ctx := context.Background()

	out, err := client.GetCommitLog(ctx, dir, nil, 0)
	require.NoError(t, err)
	commit := strings.Split(strings.TrimSpace(string(out)), "\x01")[2]

	numstat, err := client.GetNumstat(ctx, dir, commit)
	require.NoError(t, err)
	assert.Equal(t, "1\t0\tdonnées.py", strings.TrimSpace(string(numstat)))

	diff, err := client.GetCommitDiff(ctx, dir, commit, "17", "42", []string{"données.py"})
	require.NoError(t, err)
	assert.Contains(t, string(diff), "diff --git 17/données.py 42/données.py")
}

func TestLocalGitClient_FailureIsPlainError(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient(time.Second)
	_, err := client.GetNumstat(context.Background(), t.TempDir(), "deadbeef")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsafeCommand)
}
