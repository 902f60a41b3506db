package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/alertledger/internal/domain/message"
)

// maxInputSize bounds a single alert file.
const maxInputSize = 1 << 20

// ReadMessages loads one message per file. Files ending in .html or .htm are
// HTML bodies; anything else is plain text. An empty list or "-" reads
// stdin, as HTML when stdinHTML is set.
func ReadMessages(files []string, stdin io.Reader, stdinHTML bool) ([]message.Body, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}

	bodies := make([]message.Body, 0, len(files))
	for _, name := range files {
		var (
			data []byte
			err  error
			html bool
		)
		if name == "-" {
			data, err = readLimited(stdin)
			html = stdinHTML
		} else {
			data, err = readFile(name)
			ext := strings.ToLower(filepath.Ext(name))
			html = ext == ".html" || ext == ".htm"
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		if html {
			bodies = append(bodies, message.Body{HTML: string(data)})
		} else {
			bodies = append(bodies, message.Body{Text: string(data)})
		}
	}
	return bodies, nil
}

func readFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("input exceeds %d bytes", maxInputSize)
	}
	return data, nil
}
