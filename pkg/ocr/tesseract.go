package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/fra-atlas/platform/pkg/extract"
)

// Runner executes an external command with the payload on stdin. The
// indirection exists so tests can stub tesseract out.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	entry := logger.WithFields(map[string]interface{}{
		"cmd":         name,
		"args":        strings.Join(args, " "),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithField("stderr", truncate(errb.String(), 8<<10)).Warn("exec failed")
	} else {
		entry.Debug("exec ok")
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// TesseractEngine shells out to a local tesseract binary. It is the
// fallback when the cloud engine is unavailable or errors, so it must
// work without network access. It returns plain text only; the
// orchestrator runs field extraction over it.
type TesseractEngine struct {
	binary    string
	languages string
	timeout   time.Duration
	runner    Runner
}

// NewTesseractEngine builds the local engine. languages is the
// tesseract -l argument, e.g. "eng+hin+tel+ori+ben+mar+guj".
func NewTesseractEngine(binary, languages string, timeout time.Duration) *TesseractEngine {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractEngine{
		binary:    binary,
		languages: languages,
		timeout:   timeout,
		runner:    execRunner{},
	}
}

func (e *TesseractEngine) Name() string {
	return "tesseract"
}

func (e *TesseractEngine) Recognize(ctx context.Context, req Request) (*Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := []string{"stdin", "stdout"}
	if e.languages != "" {
		args = append(args, "-l", e.languages)
	}

	stdout, stderr, err := e.runner.Run(ctx, req.Data, e.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(strings.TrimSpace(string(stderr)), 512))
	}

	text := strings.TrimSpace(string(stdout))
	return &Result{
		Text:     text,
		Language: extract.DetectScript(text),
	}, nil
}
