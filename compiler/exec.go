package compiler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
)

// ExecCompiler invokes an external compiler binary, one process per module.
// The binary is expected to behave like mibdump: read source from the given
// search directories, write a JSON artifact per module into the destination
// directory, and report per-module outcomes on stdout as "MODULE: status"
// lines.
type ExecCompiler struct {
	Binary      string
	ArtifactDir string
	Logger      *slog.Logger
}

var statusLineRe = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z0-9-]*)\s*:\s*(compiled|unchanged|missing|failed|error)\b`)

// Compile runs the external binary and parses its outcome report. A nonzero
// exit is not itself an error when a parsable report was produced; the
// per-module statuses carry the real result.
func (e *ExecCompiler) Compile(ctx context.Context, module string, searchPaths []string, ignoreErrors bool) (map[string]Status, error) {
	args := []string{"--destination-directory", e.ArtifactDir, "--destination-format", "json"}
	for _, dir := range searchPaths {
		args = append(args, "--mib-source", dir)
	}
	if ignoreErrors {
		args = append(args, "--ignore-errors")
	}
	args = append(args, module)

	cmd := exec.CommandContext(ctx, e.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	statuses := parseStatusReport(stdout.Bytes())

	if e.Logger != nil && e.Logger.Enabled(ctx, slog.LevelDebug) {
		e.Logger.LogAttrs(ctx, slog.LevelDebug, "compiler exited",
			slog.String("module", module),
			slog.Int("reported", len(statuses)),
			slog.Bool("failed", runErr != nil))
	}

	if runErr != nil && len(statuses) == 0 {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) == 0 {
			return nil, fmt.Errorf("running %s: %w", e.Binary, runErr)
		}
		return nil, fmt.Errorf("running %s: %w: %s", e.Binary, runErr, msg)
	}
	return statuses, nil
}

func parseStatusReport(out []byte) map[string]Status {
	statuses := make(map[string]Status)
	for _, m := range statusLineRe.FindAllSubmatch(out, -1) {
		name := string(m[1])
		switch string(m[2]) {
		case "compiled", "unchanged":
			statuses[name] = StatusCompiled
		case "missing":
			statuses[name] = StatusMissing
		default:
			statuses[name] = StatusFailed
		}
	}
	return statuses
}
