package filter

import (
	"errors"
	"sort"
	"strings"
)

const (
	fnmatchAnyRunes     = '*'
	fnmatchSingleRune   = '?'
	fnmatchClassOpen    = '['
	fnmatchClassClose   = ']'
	fnmatchClassNegate  = '!'
	fnmatchClassBetween = '-'

	// gobwasSpecialRunes are escaped when they appear as literals.
	gobwasSpecialRunes = `*?[]{}\,!-`

	maximumEnumeratedClassSize = 4096
)

var (
	errEmptyClass    = errors.New("character class matches nothing")
	errClassTooLarge = errors.New("negated character class is too large")
)

// runeRange is an inclusive span of a bracket expression. A single rune has lo == hi.
type runeRange struct {
	lo rune
	hi rune
}

// translateFnmatch rewrites a shell fnmatch pattern into gobwas/glob syntax.
// Only *, ? and bracket expressions are special. Braces, commas and backslashes are literal,
// and a [ without a closing ] is a literal bracket.
func translateFnmatch(pattern string) (string, error) {
	patternRunes := []rune(pattern)
	var builder strings.Builder
	for index := 0; index < len(patternRunes); {
		current := patternRunes[index]
		switch current {
		case fnmatchAnyRunes, fnmatchSingleRune:
			builder.WriteRune(current)
			index++
		case fnmatchClassOpen:
			closing := findClassClose(patternRunes, index)
			if closing < 0 {
				builder.WriteString(escapeLiteral(current))
				index++
				continue
			}
			class, classError := translateClass(patternRunes[index+1 : closing])
			if classError != nil {
				return "", classError
			}
			builder.WriteString(class)
			index = closing + 1
		default:
			builder.WriteString(escapeLiteral(current))
			index++
		}
	}
	return builder.String(), nil
}

// findClassClose returns the index of the ] ending the class opened at opening, or -1.
// A ] directly after [ or [! belongs to the class.
func findClassClose(patternRunes []rune, opening int) int {
	position := opening + 1
	if position < len(patternRunes) && patternRunes[position] == fnmatchClassNegate {
		position++
	}
	if position < len(patternRunes) && patternRunes[position] == fnmatchClassClose {
		position++
	}
	for position < len(patternRunes) && patternRunes[position] != fnmatchClassClose {
		position++
	}
	if position >= len(patternRunes) {
		return -1
	}
	return position
}

func parseClassBody(body []rune) []runeRange {
	var ranges []runeRange
	for position := 0; position < len(body); {
		if position+2 < len(body) && body[position+1] == fnmatchClassBetween {
			if body[position] <= body[position+2] {
				ranges = append(ranges, runeRange{lo: body[position], hi: body[position+2]})
			}
			position += 3
			continue
		}
		ranges = append(ranges, runeRange{lo: body[position], hi: body[position]})
		position++
	}
	return ranges
}

// translateClass converts the body of a bracket expression.
// gobwas accepts one range or one list of runes per class, so a positive class becomes an
// alternation and a negated class is enumerated into a single list.
func translateClass(body []rune) (string, error) {
	negated := len(body) > 0 && body[0] == fnmatchClassNegate
	if negated {
		body = body[1:]
	}
	ranges := parseClassBody(body)
	if negated {
		return translateNegatedClass(ranges)
	}

	var alternatives []string
	for _, span := range ranges {
		if span.lo == fnmatchClassNegate {
			alternatives = append(alternatives, escapeLiteral(span.lo))
			span.lo++
			if span.lo > span.hi {
				continue
			}
		}
		if span.lo == span.hi {
			alternatives = append(alternatives, escapeLiteral(span.lo))
			continue
		}
		alternatives = append(alternatives, string([]rune{'[', span.lo, '-', span.hi, ']'}))
	}
	switch len(alternatives) {
	case 0:
		return "", errEmptyClass
	case 1:
		return alternatives[0], nil
	default:
		return "{" + strings.Join(alternatives, ",") + "}", nil
	}
}

func translateNegatedClass(ranges []runeRange) (string, error) {
	if len(ranges) == 0 {
		return string(fnmatchSingleRune), nil
	}
	if len(ranges) == 1 && ranges[0].lo != ranges[0].hi {
		return string([]rune{'[', '!', ranges[0].lo, '-', ranges[0].hi, ']'}), nil
	}

	seen := make(map[rune]struct{})
	for _, span := range ranges {
		if int(span.hi-span.lo)+len(seen) >= maximumEnumeratedClassSize {
			return "", errClassTooLarge
		}
		for member := span.lo; member <= span.hi; member++ {
			seen[member] = struct{}{}
		}
	}
	members := make([]rune, 0, len(seen))
	for member := range seen {
		members = append(members, member)
	}
	sort.Slice(members, func(left, right int) bool { return members[left] < members[right] })

	if len(members) == 1 && members[0] == fnmatchClassBetween {
		return "[!---]", nil
	}
	// gobwas reads "x-" at the start of a class as a range.
	if members[0] == fnmatchClassBetween {
		members = append(members[1:], fnmatchClassBetween)
	}
	var builder strings.Builder
	builder.WriteString("[!")
	for _, member := range members {
		builder.WriteRune('\\')
		builder.WriteRune(member)
	}
	builder.WriteRune(fnmatchClassClose)
	return builder.String(), nil
}

func escapeLiteral(literal rune) string {
	if strings.ContainsRune(gobwasSpecialRunes, literal) {
		return `\` + string(literal)
	}
	return string(literal)
}
