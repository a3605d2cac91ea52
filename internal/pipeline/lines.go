package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrMissingInput is returned when a stage's input file does not exist.
// Nothing is analysed in that case.
var ErrMissingInput = errors.New("missing input")

const maxLine = 1 << 20

// requireFiles returns ErrMissingInput naming the first absent path.
func requireFiles(paths ...string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
			return fmt.Errorf("%w: %s", ErrMissingInput, p)
		}
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return nil
}

// RequireInput returns ErrMissingInput naming the first path that is absent
// or a directory.
func RequireInput(paths ...string) error {
	return requireFiles(paths...)
}

// readLines returns the lines of a text file without line terminators.
func readLines(path string) ([]string, error) {
	if err := requireFiles(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
