package stackexchange

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadIDs reads user ids one per line. Blank lines and lines starting with
// '#' are skipped, and repeated ids keep only their first occurrence.
func ReadIDs(r io.Reader) ([]int, error) {
	var ids []int
	seen := make(map[int]bool)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		id, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid user id %q: %w", line, text, err)
		}
		if id <= 0 {
			return nil, fmt.Errorf("line %d: user id must be positive, got %d", line, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ids: %w", err)
	}
	return ids, nil
}

// ReadIDsFile is ReadIDs over a file.
func ReadIDsFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ids file: %w", err)
	}
	defer f.Close()
	return ReadIDs(f)
}
