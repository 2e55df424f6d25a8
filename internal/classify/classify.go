// Package classify adapts external skill classifiers to contract.SkillClassifier.
//
// A classifier is any executable that reads one JSON request per line on stdin
// and answers with one JSON response per line on stdout:
//
//	-> {"inputs": ["def f(): ...", "..."], "limit": 3}
//	<- {"predictions": [[{"label": "python", "score": 0.91}], [...]]}
//
// A response carrying a non-empty "error" field fails the whole batch.
package classify

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
)

// maxResponseLine bounds one response line from a classifier process.
const maxResponseLine = 64 << 20

// ErrClosed is returned by Classify after Close.
var ErrClosed = errors.New("classifier is closed")

type request struct {
	Inputs []string `json:"inputs"`
	Limit  int      `json:"limit"`
}

type response struct {
	Predictions [][]schema.Prediction `json:"predictions"`
	Error       string                `json:"error,omitempty"`
}

// ExecClassifier talks to one long-lived classifier process.
// The process is started on first use and restarted after a protocol failure
// or a call whose context ended before the answer arrived.
type ExecClassifier struct {
	cfg contract.ModelConfig

	mu     sync.Mutex
	closed bool
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	enc    *json.Encoder
}

var _ contract.SkillClassifier = &ExecClassifier{} // Compile-time check

// NewExecClassifier returns a classifier for cfg without starting its process.
func NewExecClassifier(cfg contract.ModelConfig) *ExecClassifier {
	return &ExecClassifier{cfg: cfg}
}

// Tag implements the SkillClassifier interface.
func (c *ExecClassifier) Tag() string { return c.cfg.Tag() }

// Type implements the SkillClassifier interface.
func (c *ExecClassifier) Type() schema.ModelType { return c.cfg.Type }

// Classify implements the SkillClassifier interface.
func (c *ExecClassifier) Classify(ctx context.Context, inputs []string, limit int) ([][]schema.Prediction, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.ensureStartedLocked(ctx); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Tag(), err)
	}

	// A classifier that stops answering is killed once ctx is done.
	proc := c.cmd.Process
	stop := context.AfterFunc(ctx, func() { _ = proc.Kill() })
	resp, err := c.roundTripLocked(request{Inputs: inputs, Limit: limit})
	if !stop() {
		_ = c.shutdownLocked()
		return nil, fmt.Errorf("%s: %w", c.Tag(), ctx.Err())
	}
	if err != nil {
		_ = c.shutdownLocked()
		return nil, fmt.Errorf("%s: %w", c.Tag(), err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s: %s", c.Tag(), resp.Error)
	}
	if len(resp.Predictions) != len(inputs) {
		_ = c.shutdownLocked()
		return nil, fmt.Errorf("%s: got %d predictions for %d inputs", c.Tag(), len(resp.Predictions), len(inputs))
	}
	for i, preds := range resp.Predictions {
		if limit > 0 && len(preds) > limit {
			resp.Predictions[i] = preds[:limit]
		}
	}
	return resp.Predictions, nil
}

func (c *ExecClassifier) roundTripLocked(req request) (response, error) {
	var resp response
	if err := c.enc.Encode(req); err != nil {
		return resp, fmt.Errorf("write request: %w", err)
	}
	if !c.stdout.Scan() {
		if err := c.stdout.Err(); err != nil {
			return resp, fmt.Errorf("read response: %w", err)
		}
		return resp, fmt.Errorf("read response: %w", io.ErrUnexpectedEOF)
	}
	if err := json.Unmarshal(c.stdout.Bytes(), &resp); err != nil {
		return resp, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func (c *ExecClassifier) ensureStartedLocked(ctx context.Context) error {
	if c.cmd != nil {
		return nil
	}
	if len(c.cfg.Command) == 0 {
		return fmt.Errorf("no command configured")
	}

	// The process outlives any single call; only Close stops it.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), c.cfg.Command[0], c.cfg.Command[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseLine)
	enc := json.NewEncoder(stdin)
	enc.SetEscapeHTML(false)

	c.cmd, c.stdin, c.stdout, c.enc = cmd, stdin, scanner, enc
	contract.Logger().Debug("Started classifier", "model", c.Tag(), "pid", cmd.Process.Pid)
	return nil
}

// shutdownLocked closes stdin, letting a well-behaved process exit, then reaps it.
func (c *ExecClassifier) shutdownLocked() error {
	if c.cmd == nil {
		return nil
	}
	_ = c.stdin.Close()
	err := c.cmd.Wait()
	c.cmd, c.stdin, c.stdout, c.enc = nil, nil, nil, nil
	return err
}

// Close implements the SkillClassifier interface.
func (c *ExecClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.shutdownLocked()
}

// Open builds one classifier per configured model. Processes start lazily.
func Open(_ context.Context, configs []contract.ModelConfig) ([]contract.SkillClassifier, error) {
	models := make([]contract.SkillClassifier, 0, len(configs))
	for _, cfg := range configs {
		if len(cfg.Command) == 0 {
			CloseAll(models)
			return nil, fmt.Errorf("model %s has no command", cfg.Tag())
		}
		if _, err := exec.LookPath(cfg.Command[0]); err != nil {
			CloseAll(models)
			return nil, fmt.Errorf("model %s: %w", cfg.Tag(), err)
		}
		models = append(models, NewExecClassifier(cfg))
	}
	return models, nil
}

// CloseAll closes every model, logging failures.
func CloseAll(models []contract.SkillClassifier) {
	for _, m := range models {
		if err := m.Close(); err != nil {
			contract.LogWarn("Classifier did not exit cleanly: "+m.Tag(), err)
		}
	}
}
