package pipeline

import (
	"context"
	"os/exec"

	"github.com/graylayer/pdfredact/perr"
)

// Linearizer wraps an external linearizing tool, invoked once per job on
// the assembled output PDF when the job's Linearize setting is true.
type Linearizer interface {
	Run(ctx context.Context, inPath, outPath string) error
}

// QpdfLinearizer shells out to qpdf --linearize, the standard real-world
// tool for this step; no in-core linearizer is attempted.
type QpdfLinearizer struct {
	BinaryPath string
}

func (l QpdfLinearizer) binary() string {
	if l.BinaryPath != "" {
		return l.BinaryPath
	}
	return "qpdf"
}

func (l QpdfLinearizer) Run(ctx context.Context, inPath, outPath string) error {
	cmd := exec.CommandContext(ctx, l.binary(), "--linearize", inPath, outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return perr.Linearize(err, "qpdf --linearize failed: %s", string(out))
	}
	return nil
}
