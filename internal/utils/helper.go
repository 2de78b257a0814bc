package utils

import (
	"strconv"
	"strings"
)

func StrPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TrimPtr trims in place and turns an all-blank value into nil.
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// ParseID parses a positive path id.
func ParseID(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Pagination normalises page/limit the same way for every list endpoint:
// page defaults to 1, limit to 20 and is capped at 100.
func Pagination(page, limit int32) (finalPage, finalLimit, offset int32) {
	finalPage, finalLimit = 1, 20
	if page > 0 {
		finalPage = page
	}
	if limit > 0 {
		finalLimit = limit
	}
	if finalLimit > 100 {
		finalLimit = 100
	}
	return finalPage, finalLimit, (finalPage - 1) * finalLimit
}
