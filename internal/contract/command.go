package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsafeCommand is returned when a command line contains a segment that is not a git call.
var ErrUnsafeCommand = errors.New("unsafe command")

// ErrNoData marks a git query that failed for a reason other than safety.
// Callers skip the unit of work instead of retrying.
var ErrNoData = errors.New("no data")

// gitBinary is the only executable the pipeline may spawn.
const gitBinary = "git"

// pipelineSeparator matches the shell operators that start a new command segment.
var pipelineSeparator = regexp.MustCompile(`&&|\|\||;|\||&`)

// allowedVerbs are the read-only git subcommands the pipeline uses.
var allowedVerbs = map[string]struct{}{
	"log":       {},
	"show":      {},
	"config":    {},
	"rev-parse": {},
	"remote":    {},
}

// CheckCommand verifies that every pipeline segment of a rendered command line begins with "git ".
func CheckCommand(cmdline string) error {
	for _, segment := range pipelineSeparator.Split(cmdline, -1) {
		if !strings.HasPrefix(strings.TrimSpace(segment), gitBinary+" ") {
			return fmt.Errorf("%w: segment %q of %q is not a git call", ErrUnsafeCommand, strings.TrimSpace(segment), cmdline)
		}
	}
	return nil
}

// CheckArgs verifies that a git argument list invokes an allowed read-only verb.
// Leading global options (-C <path>, -c <k=v>) are skipped.
func CheckArgs(args []string) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "-C" || arg == "-c" {
			i++
			continue
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if _, ok := allowedVerbs[arg]; !ok {
			return fmt.Errorf("%w: git verb %q is not allowed", ErrUnsafeCommand, arg)
		}
		return nil
	}
	return fmt.Errorf("%w: no git verb in %v", ErrUnsafeCommand, args)
}

// RenderCommand renders the command line the way a shell would see it.
func RenderCommand(repoPath string, args []string) string {
	parts := append([]string{gitBinary, "-C", repoPath}, args...)
	return strings.Join(parts, " ")
}
