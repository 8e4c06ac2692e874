package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExecEngine runs the tesseract command-line program, piping the image on
// stdin and reading recognized text from stdout.
type ExecEngine struct {
	binary      string
	tessdataDir string
}

// NewExecEngine resolves the tesseract binary and returns an engine for it.
// An empty binary means "tesseract" on PATH.
func NewExecEngine(binary, tessdataDir string) (Engine, error) {
	path, err := lookBinary(binary)
	if err != nil {
		return nil, err
	}
	return &ExecEngine{binary: path, tessdataDir: tessdataDir}, nil
}

// Name implements Engine.
func (e *ExecEngine) Name() string { return "exec" }

// Args returns the tesseract command-line arguments for opts.
func (e *ExecEngine) Args(opts Options) []string {
	args := []string{"stdin", "stdout", "--oem", "3", "--psm", strconv.Itoa(opts.PageSegMode)}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}
	if e.tessdataDir != "" {
		args = append(args, "--tessdata-dir", e.tessdataDir)
	}
	return args
}

// Recognize implements Engine.
func (e *ExecEngine) Recognize(ctx context.Context, img []byte, opts Options) (string, error) {
	cmd := exec.CommandContext(ctx, e.binary, e.Args(opts)...)
	cmd.Stdin = bytes.NewReader(img)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("tesseract failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return stdout.String(), nil
}

// Version returns the first line of `tesseract --version`.
func (e *ExecEngine) Version() string {
	out, err := exec.Command(e.binary, "--version").CombinedOutput()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line)
}
