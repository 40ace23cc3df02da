package helpers

import (
	"errors"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index < 0 || index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// IndexOfPart returns the index of the first part equal to want, or -1
func IndexOfPart(target string, separate string, want string) int {
	for i, part := range strings.Split(target, separate) {
		if part == want {
			return i
		}
	}
	return -1
}
