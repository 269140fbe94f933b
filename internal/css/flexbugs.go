package css

import (
	"regexp"
	"strings"
)

var (
	flexDecl   = regexp.MustCompile(`(^|[{;\s])flex\s*:\s*([^;}!]+)`)
	flexNumber = regexp.MustCompile(`^\d*\.?\d+$`)
)

// FlexbugsFixes expands unitless flex shorthands so browsers that default flex-basis to auto
// get the intended 0% basis.
func FlexbugsFixes(src string) string {
	return flexDecl.ReplaceAllStringFunc(src, func(m string) string {
		parts := flexDecl.FindStringSubmatch(m)
		prefix, value := parts[1], strings.TrimSpace(parts[2])
		trailing := parts[2][len(strings.TrimRight(parts[2], " \t\r\n")):]

		fields := strings.Fields(value)
		switch {
		case len(fields) == 1 && flexNumber.MatchString(fields[0]):
			value = fields[0] + " 1 0%"
		case len(fields) == 2 && flexNumber.MatchString(fields[0]) && flexNumber.MatchString(fields[1]):
			value = fields[0] + " " + fields[1] + " 0%"
		default:
			return m
		}

		return prefix + "flex: " + value + trailing
	})
}
