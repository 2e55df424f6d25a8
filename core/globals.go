package core

import "errors"

var (
	// ErrRepoClaimed is returned when another worker already holds a repository's touch file.
	ErrRepoClaimed = errors.New("repository already claimed")

	// ErrKillSwitch is returned when the kill switch file stops a batch.
	ErrKillSwitch = errors.New("kill switch detected")

	// ErrAllReposFailed is returned when every attempted repository failed.
	ErrAllReposFailed = errors.New("every repository failed")
)
