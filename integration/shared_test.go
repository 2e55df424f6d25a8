//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	// sharedSkillminePath holds the path to a shared skillmine binary built once for all tests.
	sharedSkillminePath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getSkillmineBinary returns the path to the skillmine binary, building it once if needed.
func getSkillmineBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "skillmine-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		skillminePath := filepath.Join(tempDir, "skillmine")
		buildCmd := exec.Command("go", "build", "-o", skillminePath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build skillmine: %v\n%s", err, out))
		}

		sharedSkillminePath = skillminePath
	})

	return sharedSkillminePath
}

// runSkillmine runs the binary with HOME pointed at home so default SQLite files stay isolated.
func runSkillmine(t *testing.T, home string, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getSkillmineBinary(), args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(), "HOME="+home)
	cmd.Env = append(cmd.Env, env...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}

// fixtureCommit is one commit of a generated repository.
type fixtureCommit struct {
	author string
	when   time.Time
	file   string
	lines  int
}

// skipIfGitNotAvailable skips the test when no git binary is on PATH.
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// monthsAgo returns mid-month dates so consecutive values land in distinct months.
func monthsAgo(k int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month()-time.Month(k), 15, 12, 0, 0, 0, time.UTC)
}

// makeFixtureRepo creates a git repository at dir whose commits append lines to files.
func makeFixtureRepo(t *testing.T, dir string, commits []fixtureCommit) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	gitRun(t, dir, nil, "init", "-q")

	for i, c := range commits {
		path := filepath.Join(dir, c.file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		var body strings.Builder
		for j := range c.lines {
			fmt.Fprintf(&body, "value_%d_%d = compute_total(%d, %d)\n", i, j, i, j)
		}
		_, err = f.WriteString(body.String())
		require.NoError(t, err)
		require.NoError(t, f.Close())

		date := c.when.Format(time.RFC3339)
		env := []string{
			"GIT_AUTHOR_NAME=" + c.author, "GIT_AUTHOR_EMAIL=" + c.author, "GIT_AUTHOR_DATE=" + date,
			"GIT_COMMITTER_NAME=" + c.author, "GIT_COMMITTER_EMAIL=" + c.author, "GIT_COMMITTER_DATE=" + date,
		}
		gitRun(t, dir, nil, "add", c.file)
		gitRun(t, dir, env, "commit", "-q", "-m", fmt.Sprintf("commit %d", i))
	}
}

func gitRun(t *testing.T, dir string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_NOSYSTEM=1")
	cmd.Env = append(cmd.Env, env...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}
