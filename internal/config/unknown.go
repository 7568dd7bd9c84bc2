package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// maxSuggestionDistance is the largest edit distance offered as a
// "did you mean" suggestion.
const maxSuggestionDistance = 3

// knownKeys are the fully qualified keys of the config file.
var knownKeys = []string{
	"credentials_file",
	"insecure_skip_verify",
	"endpoint",
	"batch_endpoint",
	"page_size",
	"log_level",
	"log_format",
	"share",
	"share.role",
	"share.transfer_ownership",
	"share.send_notification_email",
	"server",
	"server.metrics_addr",
	"server.yolo",
	"server.allow_local_paths",
}

func init() {
	sort.Strings(knownKeys)
}

// checkUnknownKeys turns undecoded TOML keys into errors with suggestions.
func checkUnknownKeys(md *toml.MetaData) error {
	var errs []error
	for _, key := range md.Undecoded() {
		name := key.String()
		if suggestion := closestMatch(name, knownKeys); suggestion != "" {
			errs = append(errs, fmt.Errorf("unknown config key %q, did you mean %q?", name, suggestion))
			continue
		}
		errs = append(errs, fmt.Errorf("unknown config key %q", name))
	}
	return errors.Join(errs...)
}

// closestMatch returns the known key nearest to unknown, or "" when none
// is within maxSuggestionDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1

	for _, k := range known {
		if d := levenshtein(unknown, k); d < bestDist {
			bestDist = d
			best = k
		}
	}

	return best
}

func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1
		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}
			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
