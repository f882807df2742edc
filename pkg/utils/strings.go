package utils

import "strings"

func RemoveEmptyStrings(slice []string) []string {
	var result []string

	for _, s := range slice {
		if s != "" {
			result = append(result, s)
		}
	}

	return result
}

// SplitAndTrim splits every value on sep, trims whitespace and drops empty parts.
func SplitAndTrim(values []string, sep string) []string {
	var result []string
	for _, v := range values {
		for _, part := range strings.Split(v, sep) {
			result = append(result, strings.TrimSpace(part))
		}
	}
	return RemoveEmptyStrings(result)
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
