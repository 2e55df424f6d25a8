package classify

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "SKILLMINE_CLASSIFY_HELPER"

// TestMain lets the test binary double as a classifier process.
func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		runHelper(mode)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// runHelper answers each request with one prediction per input whose label is the input's first word.
func runHelper(mode string) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseLine)
	enc := json.NewEncoder(os.Stdout)
	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			_ = enc.Encode(response{Error: err.Error()})
			continue
		}
		switch mode {
		case "error":
			_ = enc.Encode(response{Error: "model exploded"})
			continue
		case "short":
			_ = enc.Encode(response{Predictions: [][]schema.Prediction{}})
			continue
		case "garbage":
			fmt.Println("not json")
			continue
		case "hang":
			time.Sleep(time.Hour)
		}
		var resp response
		for _, in := range req.Inputs {
			label, _, _ := strings.Cut(in, " ")
			resp.Predictions = append(resp.Predictions, []schema.Prediction{
				{Label: label, Score: 0.9},
				{Label: "extra-1", Score: 0.2},
				{Label: "extra-2", Score: 0.1},
			})
		}
		_ = enc.Encode(resp)
	}
}

func helperModel(t *testing.T, mode string) contract.ModelConfig {
	t.Helper()
	t.Setenv(helperEnv, mode)
	return contract.ModelConfig{
		Name:    "helper",
		Type:    schema.CodeToSkill,
		Command: []string{os.Args[0], "-test.run=^$"},
	}
}

func TestExecClassifierRoundTrip(t *testing.T) {
	c := NewExecClassifier(helperModel(t, "echo"))
	defer func() { _ = c.Close() }()

	assert.Equal(t, "c2s::helper", c.Tag())
	assert.Equal(t, schema.CodeToSkill, c.Type())

	preds, err := c.Classify(context.Background(), []string{"python code", "golang code"}, 2)
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, "python", preds[0][0].Label)
	assert.Equal(t, "golang", preds[1][0].Label)
	assert.Len(t, preds[0], 2)

	// The same process serves the next batch.
	preds, err = c.Classify(context.Background(), []string{"rust"}, 0)
	require.NoError(t, err)
	assert.Len(t, preds[0], 3)

	empty, err := c.Classify(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestExecClassifierFailures(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr string
	}{
		{"error", "model exploded"},
		{"short", "got 0 predictions for 1 inputs"},
		{"garbage", "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			c := NewExecClassifier(helperModel(t, tt.mode))
			defer func() { _ = c.Close() }()
			_, err := c.Classify(context.Background(), []string{"x"}, 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExecClassifierClosed(t *testing.T) {
	c := NewExecClassifier(helperModel(t, "echo"))
	require.NoError(t, c.Close())
	_, err := c.Classify(context.Background(), []string{"x"}, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestExecClassifierCanceled(t *testing.T) {
	c := NewExecClassifier(helperModel(t, "echo"))
	defer func() { _ = c.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Classify(ctx, []string{"x"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecClassifierKilledWhenContextEnds(t *testing.T) {
	c := NewExecClassifier(helperModel(t, "hang"))
	defer func() { _ = c.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.Classify(ctx, []string{"x"}, 1)
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(10 * time.Second):
		t.Fatal("Classify did not return after the context ended")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Nil(t, c.cmd, "the hung process is reaped")
}

func TestOpen(t *testing.T) {
	models, err := Open(context.Background(), []contract.ModelConfig{helperModel(t, "echo")})
	require.NoError(t, err)
	require.Len(t, models, 1)
	CloseAll(models)

	_, err = Open(context.Background(), []contract.ModelConfig{{Name: "none", Type: schema.ImportToSkill}})
	assert.Error(t, err)

	_, err = Open(context.Background(), []contract.ModelConfig{{Name: "missing", Type: schema.ImportToSkill,
		Command: []string{"skillmine-no-such-classifier"}}})
	assert.Error(t, err)
}
