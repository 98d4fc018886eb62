package trace

import (
	"io"
	"os"

	"github.com/matzehuels/tracetower/pkg/errors"
)

// Read decodes a tracer payload from r. See [Normalize] for the degraded
// trace returned alongside MALFORMED_TRACE errors.
func Read(r io.Reader) (*Trace, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read trace")
	}
	return Normalize(data)
}

// Load reads a tracer payload from a JSON file at path.
// This is a convenience wrapper around [Read] for file-based input.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "trace file %s not found", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}
