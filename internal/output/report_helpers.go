package output

import (
	"fmt"
	"sort"
	"strings"
)

type reasonGroup struct {
	reason string
	keys   []string
}

// groupFailureReasons groups failed keys by normalized reason, largest
// group first. Ties are broken by reason.
func groupFailureReasons(fails []KeyResult) []reasonGroup {
	byReason := make(map[string][]string)
	for _, r := range fails {
		reason := normalizeErrorReason(r.Key, r.Message)
		byReason[reason] = append(byReason[reason], r.Key)
	}

	groups := make([]reasonGroup, 0, len(byReason))
	for reason, keys := range byReason {
		sort.Strings(keys)
		groups = append(groups, reasonGroup{reason: reason, keys: keys})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].keys) != len(groups[j].keys) {
			return len(groups[i].keys) > len(groups[j].keys)
		}
		return groups[i].reason < groups[j].reason
	})
	return groups
}

// normalizeErrorReason collapses whitespace and strips the key-specific
// prefixes so that one cause shared by many keys groups as one reason.
func normalizeErrorReason(key, errText string) string {
	s := strings.Join(strings.Fields(errText), " ")
	if s == "" {
		return "unknown error"
	}

	for _, prefix := range []string{"load " + key + ": ", "write " + key + ": ", key + ": "} {
		s = strings.TrimPrefix(s, prefix)
	}

	return truncate(s, 120)
}

func formatKeyList(keys []string, max int) string {
	if len(keys) == 0 {
		return ""
	}
	noun := "keys"
	if len(keys) == 1 {
		noun = "key"
	}
	if len(keys) <= max {
		return fmt.Sprintf("%d %s (%s)", len(keys), noun, strings.Join(keys, ", "))
	}
	return fmt.Sprintf("%d %s (%s, +%d more)", len(keys), noun, strings.Join(keys[:max], ", "), len(keys)-max)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
