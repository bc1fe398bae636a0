// Package utils holds small helpers shared by the HTTP and service layers.
package utils

import "strconv"

// IntInRange parses s as a decimal int and clamps it to [lo, hi]. Empty or
// malformed input yields def. A hi <= 0 leaves the upper side unbounded.
//
//	utils.IntInRange("250", 6, 1, 100) // 100
//	utils.IntInRange("x", 6, 1, 100)   // 6
func IntInRange(s string, def, lo, hi int) int {
	n, err := strconv.Atoi(s)
	if s == "" || err != nil {
		n = def
	}
	if n < lo {
		n = lo
	}
	if hi > 0 && n > hi {
		n = hi
	}
	return n
}

// PageOffset is the row offset of a 1-based page.
func PageOffset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// TotalPages is the number of pages needed to show total rows, pageSize at a
// time. Zero rows means zero pages.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize < 1 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
