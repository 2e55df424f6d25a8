package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"
)

// unquotedPaths keeps non-ASCII paths verbatim in numstat and diff headers.
var unquotedPaths = []string{"-c", "core.quotepath=off"}

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct {
	timeout time.Duration // per invocation, zero means unbounded
}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient(timeout time.Duration) *LocalGitClient {
	return &LocalGitClient{timeout: timeout}
}

// Run executes a git command and returns its stdout.
// The rendered command line is checked before anything is spawned.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	if err := CheckCommand(RenderCommand(repoPath, args)); err != nil {
		return nil, err
	}
	if err := CheckArgs(args); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, gitBinary, fullArgs...)
	out, err := cmd.Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("git %s in %q: %w", args[0], repoPath, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRemoteURL implements the GitClient interface.
func (c *LocalGitClient) GetRemoteURL(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "config", "--get", "remote.origin.url")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetUserEmail implements the GitClient interface.
func (c *LocalGitClient) GetUserEmail(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "config", "user.email")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetCommitLog implements the GitClient interface.
func (c *LocalGitClient) GetCommitLog(ctx context.Context, repoPath string, authors []string, lookbackMonths int) ([]byte, error) {
	args := []string{
		"log",
		"--pretty=format:%ae%x01%ct%x01%H",
	}
	for _, author := range authors {
		args = append(args, "--author="+author)
	}
	if lookbackMonths > 0 {
		args = append(args, fmt.Sprintf("--since=%d months ago", lookbackMonths))
	}
	return c.Run(ctx, repoPath, args...)
}

// GetNumstat implements the GitClient interface.
func (c *LocalGitClient) GetNumstat(ctx context.Context, repoPath string, commitID string) ([]byte, error) {
	args := append(slices.Clone(unquotedPaths), "show", "--numstat", "--diff-filter=d", "--format=", commitID)
	return c.Run(ctx, repoPath, args...)
}

// GetCommitDiff implements the GitClient interface.
func (c *LocalGitClient) GetCommitDiff(ctx context.Context, repoPath string, commitID string, srcPrefix, dstPrefix string, files []string) ([]byte, error) {
	args := append(slices.Clone(unquotedPaths),
		"show",
		"--format=",
		"--no-color",
		"--no-ext-diff",
		"--src-prefix=" + srcPrefix + "/",
		"--dst-prefix=" + dstPrefix + "/",
		commitID,
		"--",
	)
	args = append(args, files...)
	return c.Run(ctx, repoPath, args...)
}

// ListAuthors implements the GitClient interface.
func (c *LocalGitClient) ListAuthors(ctx context.Context, repoPath string, lookbackMonths int) ([]byte, error) {
	args := []string{"log", "--pretty=format:%ae"}
	if lookbackMonths > 0 {
		args = append(args, fmt.Sprintf("--since=%d months ago", lookbackMonths))
	}
	return c.Run(ctx, repoPath, args...)
}
