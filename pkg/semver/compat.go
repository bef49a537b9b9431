// Package semver checks client protocol version requirements against the
// version this service speaks.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:compat"

// ProtocolVersion is the bulk action RPC protocol this build implements.
const ProtocolVersion = "1.1.0"

var majorOnlyRegex = regexp.MustCompile(`^\d+$`)

// IsMajorOnly checks if a range string is a bare major number (e.g., "1").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(strings.TrimSpace(rangeStr))
}

// ExtractMajorFromRange returns the major of a bare major range, or -1.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(rangeStr))
	if err != nil {
		return -1
	}
	return n
}

// SatisfiesRange checks if version satisfies rangeStr. An empty range accepts
// anything; a bare major ("1") matches that major only.
func SatisfiesRange(version, rangeStr string) (bool, error) {
	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("%s - invalid version %q: %w", logPrefix, version, err)
	}

	rangeStr = strings.TrimSpace(rangeStr)
	if rangeStr == "" {
		return true, nil
	}
	if IsMajorOnly(rangeStr) {
		return int(sv.Major()) == ExtractMajorFromRange(rangeStr), nil
	}

	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return false, fmt.Errorf("%s - invalid range %q: %w", logPrefix, rangeStr, err)
	}
	return constraint.Check(sv), nil
}

// CheckProtocol reports whether ProtocolVersion satisfies the client's range.
func CheckProtocol(rangeStr string) (bool, error) {
	return SatisfiesRange(ProtocolVersion, rangeStr)
}
