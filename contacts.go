package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// loadNumbers reads newline-delimited phone numbers. Blank lines and
// #-comments are skipped; duplicates are dropped, first occurrence wins, so
// outcome order still matches the file.
func loadNumbers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open numbers file: %w", err)
	}
	defer file.Close()

	seen := make(map[string]bool)
	var numbers []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		numbers = append(numbers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read numbers file: %w", err)
	}

	if len(numbers) == 0 {
		return nil, fmt.Errorf("numbers file %s contains no numbers", path)
	}
	return numbers, nil
}
