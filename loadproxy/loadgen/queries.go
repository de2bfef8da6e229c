package loadgen

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

var errEmptyQueryFile = errors.New("query file contains no queries")

// LoadQueries reads one query per line from path. Blank lines and lines starting with "--" are skipped.
func LoadQueries(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	defer func() { _ = file.Close() }()

	queries := make([]string, 0)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		queries = append(queries, line)
	}

	if err = scanner.Err(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	if len(queries) == 0 {
		return nil, errors.Join(ErrInvalidConfig, errEmptyQueryFile)
	}

	return queries, nil
}
