package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// ExecRenderer invokes an external command as
// "cmd [args...] <logPath> <outDir>" and parses a JSON object mapping rule
// names to evaluations from its stdout.
type ExecRenderer struct {
	Command []string
}

func (r *ExecRenderer) Render(ctx context.Context, logPath, outDir string) (map[string]RuleEvaluation, error) {
	if len(r.Command) == 0 {
		return nil, fmt.Errorf("no renderer command configured")
	}
	args := append(append([]string{}, r.Command[1:]...), logPath, outDir)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("renderer %s: %w: %s", r.Command[0], err, stderr.String())
	}

	var evaluated map[string]RuleEvaluation
	if err := json.Unmarshal(stdout.Bytes(), &evaluated); err != nil {
		return nil, fmt.Errorf("parsing renderer output: %w", err)
	}
	return evaluated, nil
}

// ExecVideoEncoder invokes an external command as
// "cmd [args...] <logPath> <outPath>".
type ExecVideoEncoder struct {
	Command []string
}

func (e *ExecVideoEncoder) Encode(ctx context.Context, logPath, outPath string) error {
	if len(e.Command) == 0 {
		return fmt.Errorf("no video command configured")
	}
	args := append(append([]string{}, e.Command[1:]...), logPath, outPath)
	cmd := exec.CommandContext(ctx, e.Command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("video encoder %s: %w: %s", e.Command[0], err, stderr.String())
	}
	return nil
}
