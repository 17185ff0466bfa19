// Package horosafe holds the guards applied to untrusted input: path
// confinement for names received over HTTP or MCP, and bounded reads for
// archive members.
package horosafe

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a user-supplied path escapes its base.
var ErrPathTraversal = errors.New("horosafe: path traversal detected")

// ErrTooLarge is returned by a LimitReader once its limit is exceeded.
var ErrTooLarge = errors.New("horosafe: input exceeds size limit")

// SafePath joins base and userInput and checks the result stays under base.
// Any ".." element is rejected outright. The returned path is absolute.
func SafePath(base, userInput string) (string, error) {
	for _, elem := range strings.FieldsFunc(userInput, isSeparator) {
		if elem == ".." {
			return "", ErrPathTraversal
		}
	}
	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("horosafe: resolve base: %w", err)
	}
	cleaned := filepath.Join(root, filepath.Clean("/"+userInput))
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// LimitReader returns a reader that yields at most n bytes of r and then
// fails with ErrTooLarge if r has more.
func LimitReader(r io.Reader, n int64) io.Reader {
	return &limitedReader{r: r, left: n}
}

type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrTooLarge
	}
	// Read one byte past the limit to tell "exactly n" from "more than n".
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n + int(l.left), ErrTooLarge
	}
	return n, err
}

// LimitedReadAll reads at most maxBytes from r. Returns ErrTooLarge if the
// limit is exceeded.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(LimitReader(r, maxBytes))
	if err != nil {
		return nil, err
	}
	return data, nil
}
