package config

import (
	"strconv"
	"strings"

	"github.com/graylayer/pdfredact/perr"
)

// ParsePageList expands a mixed singleton/range page list
// (`[u32 | "a-b"]`, 1-based, inclusive) into a sorted, deduplicated set
// of page numbers.
func ParsePageList(items []any) ([]int, error) {
	seen := make(map[int]bool)
	var out []int
	add := func(n int) error {
		if n < 1 {
			return perr.Config("page number must be >= 1, got %d", n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
		return nil
	}

	for _, item := range items {
		switch v := item.(type) {
		case int:
			if err := add(v); err != nil {
				return nil, err
			}
		case string:
			start, end, err := parseRange(v)
			if err != nil {
				return nil, err
			}
			for n := start; n <= end; n++ {
				if err := add(n); err != nil {
					return nil, err
				}
			}
		default:
			return nil, perr.Config("page list entry has unsupported type %T", item)
		}
	}

	sortInts(out)
	return out, nil
}

func parseRange(s string) (start, end int, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, perr.Config("invalid page range %q: expected \"a-b\"", s)
	}
	start, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil {
		return 0, 0, perr.Config("invalid page range %q: non-numeric bound", s)
	}
	if start > end {
		return 0, 0, perr.Config("invalid page range %q: start > end", s)
	}
	return start, end, nil
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// CheckNoOverlap returns a ConfigError if any page number appears in
// more than one of the named lists: a page claimed by two lists is a
// configuration error.
func CheckNoOverlap(lists map[string][]int) error {
	owner := make(map[int]string)
	for name, pages := range lists {
		for _, p := range pages {
			if prev, ok := owner[p]; ok {
				return perr.Config("page %d listed in both %q and %q", p, prev, name)
			}
			owner[p] = name
		}
	}
	return nil
}
