package entity

import "strings"

const (
	flagPrefix = "FLAG{kql_kung_fu_"
	flagSuffix = "}"

	// FlagMarker is the substring every embedded flag starts with
	FlagMarker = "FLAG{"
)

// Flag builds the flag token for slug
func Flag(slug string) string {
	return flagPrefix + slug + flagSuffix
}

// FlagSlug returns the slug of a well-formed flag token
func FlagSlug(flag string) (string, bool) {
	if !strings.HasPrefix(flag, flagPrefix) || !strings.HasSuffix(flag, flagSuffix) {
		return "", false
	}
	slug := flag[len(flagPrefix) : len(flag)-len(flagSuffix)]
	if slug == "" {
		return "", false
	}
	return slug, true
}
