package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/pkg/datafile"
)

// EncodeAsset serializes root behind the magic header and returns the paths
// of values the encoder dropped.
func EncodeAsset(root *datafile.Dict, log *zap.Logger) ([]byte, []string, error) {
	var buf bytes.Buffer
	enc := datafile.NewEncoder(&buf, datafile.WithLogger(log))
	if err := enc.EncodeAsset(root); err != nil {
		return nil, enc.Dropped(), fmt.Errorf("encoding asset: %w", err)
	}
	return buf.Bytes(), enc.Dropped(), nil
}

// WriteFile writes data to path, creating parent directories. The data goes
// to a temporary file in the destination directory which is then renamed over
// path, so readers never observe a partial file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting output file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing output file: %w", err)
	}
	return nil
}
