package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/Faultbox/scenepack/internal/export"
)

// ErrNoSuccessMarker is returned when an external exporter exits cleanly but
// never reports a saved file.
var ErrNoSuccessMarker = errors.New("exporter output has no success marker")

// RunExternal runs an exporter command line for one source. The placeholders
// {input} and {output} are replaced in every argument after shell-style
// splitting. Success requires a zero exit status and the success marker in
// the combined output.
func RunExternal(ctx context.Context, command, input, output string) ([]byte, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parsing exporter command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("exporter command %q is empty", command)
	}

	r := strings.NewReplacer("{input}", input, "{output}", output)
	for i, a := range args {
		args[i] = r.Replace(a)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("running %s: %w", args[0], err)
	}
	if !bytes.Contains(out.Bytes(), []byte(export.SuccessMarker)) {
		return out.Bytes(), fmt.Errorf("%s: %w", args[0], ErrNoSuccessMarker)
	}
	return out.Bytes(), nil
}
