package models

import "strings"

// Course is one active LMS course. Name embeds a localized and an English
// name joined by the upstream formatting convention; see LocalizedName and
// EnglishName.
type Course struct {
	ID         int
	Name       string
	IsPublic   bool
	CourseCode string
}

// LocalizedName extracts the localized course name from Name.
//
// The course code is of the format "<localized> (<code>)" and the name is of
// the format "<localized> <english>", so the position of the first
// parenthesis in the code marks where the localized part of the name ends.
// This is a best-effort display transform inherited from the upstream
// formatting; when it cannot be applied the full name is returned.
func (c Course) LocalizedName() string {
	i := parenIndex(c.CourseCode)
	name := []rune(c.Name)
	if i < 1 || i > len(name) {
		return c.Name
	}
	return strings.TrimSpace(string(name[:i-1]))
}

// EnglishName extracts the English course name from Name, using the same
// convention as LocalizedName. Returns an empty string when the convention
// does not hold.
func (c Course) EnglishName() string {
	i := parenIndex(c.CourseCode)
	name := []rune(c.Name)
	if i < 1 || i >= len(name) {
		return ""
	}
	return strings.TrimSpace(string(name[i:]))
}

// parenIndex returns the rune index of the first '(' in s, or -1.
func parenIndex(s string) int {
	for i, r := range []rune(s) {
		if r == '(' {
			return i
		}
	}
	return -1
}
