package aggregation

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"perfvoi/internal/models"
)

// maxValueFileSize bounds how much of a value file is read. A scalar
// literal never comes close.
const maxValueFileSize = 4096

// Extract reads the scalar held by a matched file
func Extract(m Match) (models.ScalarResult, error) {
	content, err := readValueFile(m.Path)
	if err != nil {
		return models.ScalarResult{}, err
	}

	value, err := parseScalar(content)
	if err != nil {
		return models.ScalarResult{}, &MalformedValueError{
			Subject: m.Subject,
			Region:  m.Region,
			Path:    m.Path,
			Content: excerpt(content),
			Err:     err,
		}
	}

	return models.ScalarResult{
		Subject:      m.Subject,
		RegionFolder: m.Region,
		Label:        m.Label,
		Value:        value,
		Path:         m.Path,
	}, nil
}

func readValueFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open value file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxValueFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read value file %s: %w", path, err)
	}
	return string(data), nil
}

// parseScalar accepts exactly one float literal surrounded by optional
// whitespace, which is how FSL's meants writes its output.
func parseScalar(content string) (float64, error) {
	if len(content) > maxValueFileSize {
		return 0, fmt.Errorf("file larger than %d bytes", maxValueFileSize)
	}
	fields := strings.Fields(content)
	switch len(fields) {
	case 0:
		return 0, fmt.Errorf("empty file")
	case 1:
	default:
		return 0, fmt.Errorf("expected one token, found %d", len(fields))
	}
	return strconv.ParseFloat(fields[0], 64)
}

func excerpt(s string) string {
	const n = 64
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
