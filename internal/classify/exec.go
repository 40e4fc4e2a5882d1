package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"

	"github.com/pixelproof/pixelproof/internal/common"
)

// execScorer implements Scorer by invoking an external scorer process. The
// tensor goes to the process's stdin as JSON; the process prints a JSON
// document with a "probability" field and exits.
type execScorer struct {
	command string
}

func newExecScorer(cfg Config) (Scorer, error) {
	command := cfg.Command
	if command == "" {
		return nil, fmt.Errorf("classifier command is required for the exec provider")
	}
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("scorer command not found at %s: %w", command, err)
	}
	return &execScorer{command: command}, nil
}

// Score runs the scorer process once for this tensor.
func (s *execScorer) Score(ctx context.Context, input Tensor) (float64, error) {
	raw := make([]byte, len(input.Data)*4)
	for i, v := range input.Data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	stdin, err := json.Marshal(scoreRequest{
		Data:     base64.StdEncoding.EncodeToString(raw),
		Width:    input.Width,
		Height:   input.Height,
		Channels: input.Channels,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode scorer input: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.command)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, newScorerExecError(err, stderr.String())
	}

	var scored scoreResponse
	if err := json.Unmarshal(stdout.Bytes(), &scored); err != nil {
		return 0, newScorerExecError(fmt.Errorf("undecodable scorer output: %w", err), stdout.String())
	}

	return scored.Probability, nil
}

func newScorerExecError(err error, detail string) error {
	if detail == "" {
		return fmt.Errorf("%w: %v", common.ErrModelUnavailable, err)
	}
	return fmt.Errorf("%w: %v: %s", common.ErrModelUnavailable, err, detail)
}
