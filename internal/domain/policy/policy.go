// Package policy validates password strength with a composable list of rules.
package policy

import (
	"bufio"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultMinLength is the minimum password length when none is configured.
const DefaultMinLength = 8

// DefaultMaxSimilarity is the similarity ratio at which a password is rejected.
const DefaultMaxSimilarity = 0.7

//go:embed common_passwords.txt
var commonPasswordsRaw string

// UserAttributes are the personal values a password must not resemble.
// Empty fields are ignored.
type UserAttributes struct {
	Email        string
	FirstName    string
	LastName     string
	BusinessName string
}

// Rule returns zero or more human readable violations for password.
type Rule func(password string, attrs UserAttributes) []string

// WeakPasswordError carries every violation reported by the rule chain.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + strings.Join(e.Reasons, " ")
}

// Policy runs rules in order and collects all violations.
type Policy struct {
	rules []Rule
}

func New(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// Default builds the standard chain: length, similarity, common list, numeric.
func Default(minLength int) *Policy {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return New(
		MinLength(minLength),
		NotSimilar(DefaultMaxSimilarity),
		NotCommon(CommonPasswords()),
		NotNumeric(),
	)
}

// With returns a copy of p with extra rules appended.
func (p *Policy) With(rules ...Rule) *Policy {
	out := make([]Rule, 0, len(p.rules)+len(rules))
	out = append(out, p.rules...)
	out = append(out, rules...)
	return &Policy{rules: out}
}

// Validate returns nil or a *WeakPasswordError.
func (p *Policy) Validate(password string, attrs UserAttributes) error {
	var reasons []string
	for _, rule := range p.rules {
		reasons = append(reasons, rule(password, attrs)...)
	}
	if len(reasons) == 0 {
		return nil
	}
	return &WeakPasswordError{Reasons: reasons}
}

func MinLength(n int) Rule {
	return func(password string, _ UserAttributes) []string {
		if len([]rune(password)) < n {
			return []string{fmt.Sprintf("This password is too short. It must contain at least %d characters.", n)}
		}
		return nil
	}
}

func NotNumeric() Rule {
	return func(password string, _ UserAttributes) []string {
		if password == "" {
			return nil
		}
		for _, r := range password {
			if !unicode.IsDigit(r) {
				return nil
			}
		}
		return []string{"This password is entirely numeric."}
	}
}

// NotCommon rejects passwords found in list. Comparison is case-insensitive.
func NotCommon(list map[string]struct{}) Rule {
	return func(password string, _ UserAttributes) []string {
		if _, ok := list[strings.ToLower(strings.TrimSpace(password))]; ok {
			return []string{"This password is too common."}
		}
		return nil
	}
}

// CommonPasswords parses the embedded list.
func CommonPasswords() map[string]struct{} {
	set := make(map[string]struct{}, 256)
	sc := bufio.NewScanner(strings.NewReader(commonPasswordsRaw))
	for sc.Scan() {
		if line := strings.ToLower(strings.TrimSpace(sc.Text())); line != "" {
			set[line] = struct{}{}
		}
	}
	return set
}

var nonWord = regexp.MustCompile(`\W+`)

// NotSimilar rejects passwords whose similarity ratio to any user attribute,
// or to any word inside it, reaches maxSimilarity.
func NotSimilar(maxSimilarity float64) Rule {
	return func(password string, attrs UserAttributes) []string {
		pw := strings.ToLower(password)
		fields := []struct {
			label string
			value string
		}{
			{"email address", attrs.Email},
			{"first name", attrs.FirstName},
			{"last name", attrs.LastName},
			{"business name", attrs.BusinessName},
		}
		for _, f := range fields {
			value := strings.ToLower(strings.TrimSpace(f.value))
			if value == "" {
				continue
			}
			parts := append(nonWord.Split(value, -1), value)
			for _, part := range parts {
				if part == "" || exceedsLengthRatio(pw, part, maxSimilarity) {
					continue
				}
				if similarity(pw, part) >= maxSimilarity {
					return []string{"The password is too similar to the " + f.label + "."}
				}
			}
		}
		return nil
	}
}

// exceedsLengthRatio skips comparisons that can never reach maxSimilarity
// because the password is much longer than the attribute.
func exceedsLengthRatio(password, value string, maxSimilarity float64) bool {
	pwLen := len([]rune(password))
	valueLen := len([]rune(value))
	bound := maxSimilarity / 2 * float64(pwLen)
	return pwLen >= 10*valueLen && float64(valueLen) < bound
}

// similarity is 2*LCS/(len(a)+len(b)), in [0,1].
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(lcs(ra, rb)) / float64(total)
}

func lcs(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
