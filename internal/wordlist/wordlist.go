// Package wordlist provides an embedded list of common SRV service labels.
package wordlist

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed srvlabels.txt
var labelsFS embed.FS

// SRVLabels returns the embedded SRV service labels, lowercased.
// Empty lines and comments are skipped.
func SRVLabels() []string {
	data, err := labelsFS.ReadFile("srvlabels.txt")
	if err != nil {
		return nil
	}

	var labels []string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	return labels
}
