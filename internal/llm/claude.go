package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// claudeOutputJSON is the envelope Claude returns with --output-format json.
type claudeOutputJSON struct {
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype"`
	Result     string  `json:"result"`
	IsError    bool    `json:"is_error"`
	CostUSD    float64 `json:"cost_usd"`
	DurationMs int64   `json:"duration_ms"`
}

// ClaudeCLI generates text by spawning the claude CLI in print mode.
// Sampling parameters are left to the CLI.
type ClaudeCLI struct {
	binary  string
	model   string
	timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

// NewClaudeCLI returns a ClaudeCLI. model may be empty to use the CLI default.
func NewClaudeCLI(model string, timeout time.Duration) *ClaudeCLI {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &ClaudeCLI{binary: "claude", model: model, timeout: timeout, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func (c *ClaudeCLI) args(req Request) []string {
	args := []string{"-p", req.Prompt, "--output-format", "json"}
	if req.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", req.SystemPrompt)
	}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	return args
}

// Generate implements Generator.
func (c *ClaudeCLI) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, stderr, err := c.run(ctx, c.binary, c.args(req)...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("claude timed out after %s: %w", c.timeout, ctx.Err())
		}
		return "", fmt.Errorf("claude exited with error: %w\nstderr: %s", err, string(stderr))
	}

	var envelope claudeOutputJSON
	if err := json.Unmarshal(stdout, &envelope); err != nil {
		return "", fmt.Errorf("parsing claude output: %w", err)
	}
	if envelope.IsError {
		return "", fmt.Errorf("claude returned error: %s", envelope.Result)
	}
	return strings.TrimSpace(envelope.Result), nil
}

// CheckAvailability reports whether the claude binary is on PATH.
func (c *ClaudeCLI) CheckAvailability(context.Context) bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}
