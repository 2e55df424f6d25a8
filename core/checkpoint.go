package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/huangsam/skillmine/core/algo"
	"github.com/huangsam/skillmine/schema"
)

// Layout is the checkpoint directory tree under one output path.
// The presence of a file is the state of a repository.
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at outputPath.
func NewLayout(outputPath string) Layout {
	return Layout{Root: outputPath}
}

// EnsureDirs creates the checkpoint directories.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.TmpDir(), l.FinalDir(), l.TouchDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (l Layout) TmpDir() string   { return filepath.Join(l.Root, schema.TmpStatsDir) }
func (l Layout) FinalDir() string { return filepath.Join(l.Root, schema.FinalStatsDir) }
func (l Layout) TouchDir() string { return filepath.Join(l.Root, schema.TouchFilesDir) }

// RawStatsPath is tmp-stats/<repoKey>.jsonl.
func (l Layout) RawStatsPath(repoKey string) string {
	return filepath.Join(l.TmpDir(), repoKey+schema.RawStatsSuffix)
}

// LibsPath is tmp-stats/<repoKey>_libs.jsonl.
func (l Layout) LibsPath(repoKey string) string {
	return filepath.Join(l.TmpDir(), repoKey+schema.LibsSuffix)
}

// ProfilePath is final-stats/<repoKey>_user_profile.jsonl.
func (l Layout) ProfilePath(repoKey string) string {
	return filepath.Join(l.FinalDir(), repoKey+schema.ProfileSuffix)
}

// TouchPath is touch-files/<repoKey>.
func (l Layout) TouchPath(repoKey string) string {
	return filepath.Join(l.TouchDir(), repoKey)
}

// KillSwitchPath is touch-files/kill_switch.
func (l Layout) KillSwitchPath() string {
	return filepath.Join(l.TouchDir(), schema.KillSwitchName)
}

// Claim creates the touch file of a repository exclusively. It returns
// ErrRepoClaimed when another worker got there first. Touch files never expire;
// a crashed worker's claim must be removed by hand.
func (l Layout) Claim(repoKey string) error {
	f, err := os.OpenFile(l.TouchPath(repoKey), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return ErrRepoClaimed
	}
	if err != nil {
		return fmt.Errorf("claim %s: %w", repoKey, err)
	}
	return f.Close()
}

// KillSwitch reports whether the kill switch file exists.
func (l Layout) KillSwitch() bool {
	return fileExists(l.KillSwitchPath())
}

// StateOf derives the state of a repository from the files present.
func (l Layout) StateOf(repoKey string) schema.RepoState {
	switch {
	case fileExists(l.ProfilePath(repoKey)):
		return schema.StateDone
	case fileExists(l.RawStatsPath(repoKey)):
		return schema.StateRawStatsCollected
	default:
		return schema.StateNotStarted
	}
}

// RawStatsKeys lists the repository keys with raw stats in tmp-stats, sorted.
func (l Layout) RawStatsKeys() ([]string, error) {
	entries, err := os.ReadDir(l.TmpDir())
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, schema.RawStatsSuffix) || strings.HasSuffix(name, schema.LibsSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, schema.RawStatsSuffix))
	}
	sort.Strings(keys)
	return keys, nil
}

// ProfilePaths lists every final profile file, sorted.
func (l Layout) ProfilePaths() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.FinalDir(), "*"+schema.ProfileSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ProfilePathsOf lists the final profile files of the given repositories,
// sorted and without duplicates. Repositories without one are left out.
func (l Layout) ProfilePathsOf(keys []string) []string {
	var paths []string
	for _, key := range keys {
		if p := l.ProfilePath(key); fileExists(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return slices.Compact(paths)
}

// RepoKey is the checkpoint key of a repository: its directory name.
func RepoKey(repoPath string) string {
	return filepath.Base(filepath.Clean(repoPath))
}

// InPartition reports whether this worker owns the repository.
// AllPartitions and NoParallel own everything.
func InPartition(repoKey string, partition, partitions int) bool {
	if partition < 0 || partitions <= 1 {
		return true
	}
	return algo.Partition(repoKey, partitions) == partition
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
