package batch

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"codeberg.org/snonux/bingobg/internal/audio"
	"codeberg.org/snonux/bingobg/internal/numbers"
)

// ReadOverridesFile reads phrase overrides for clip generation.
// Supported lines:
// - "<n> = <phrase>": speak phrase for number n, e.g. "60 = шейсет"
// - blank lines and lines starting with '#' are ignored
func ReadOverridesFile(filename string) (numbers.Overrides, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}
	defer f.Close()

	overrides, err := ParseOverrides(bufio.NewScanner(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return overrides, nil
}

// ParseOverrides parses override lines from a scanner
func ParseOverrides(scanner *bufio.Scanner) (numbers.Overrides, error) {
	overrides := numbers.Overrides{}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		left, right, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"<number> = <phrase>\"", lineNo)
		}

		n, err := strconv.Atoi(strings.TrimSpace(left))
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not a number", lineNo, strings.TrimSpace(left))
		}
		if n < 1 || n > numbers.Max {
			return nil, fmt.Errorf("line %d: %w: %d", lineNo, numbers.ErrOutOfRange, n)
		}

		phrase := strings.TrimSpace(right)
		if err := audio.ValidateBulgarianText(phrase); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		overrides[n] = phrase
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan overrides: %w", err)
	}
	return overrides, nil
}
