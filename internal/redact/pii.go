// Package redact masks personal data in free text before it is persisted.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

// Kind identifies a category of personal data
type Kind string

const (
	KindEmail      Kind = "email"
	KindPhone      Kind = "phone"
	KindSSN        Kind = "ssn"
	KindCreditCard Kind = "credit_card"
	KindIPAddress  Kind = "ip_address"
)

// Match is one detected span of personal data
type Match struct {
	Kind  Kind
	Start int
	End   int
}

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\b[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s][0-9]{4}\b`)
	ssnPattern   = regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`)
	cardPattern  = regexp.MustCompile(`\b(?:[0-9][ -]?){12,18}[0-9]\b`)
	ipv4Pattern  = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)
)

// Find returns all non-overlapping matches in text, ordered by position.
// When two detections overlap the earlier, longer one wins.
func Find(text string) []Match {
	var found []Match

	collect := func(kind Kind, re *regexp.Regexp, keep func(string) bool) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if keep != nil && !keep(text[loc[0]:loc[1]]) {
				continue
			}
			found = append(found, Match{Kind: kind, Start: loc[0], End: loc[1]})
		}
	}

	collect(KindEmail, emailPattern, nil)
	collect(KindCreditCard, cardPattern, luhnValid)
	collect(KindSSN, ssnPattern, nil)
	collect(KindIPAddress, ipv4Pattern, nil)
	collect(KindPhone, phonePattern, nil)

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Start != found[j].Start {
			return found[i].Start < found[j].Start
		}
		return found[i].End > found[j].End
	})

	merged := found[:0]
	for _, m := range found {
		if len(merged) > 0 && m.Start < merged[len(merged)-1].End {
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

// Contains reports whether text holds any detectable personal data
func Contains(text string) bool {
	return len(Find(text)) > 0
}

// PII replaces every detected span with a placeholder such as [EMAIL_REDACTED]
func PII(text string) string {
	matches := Find(text)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m.Start])
		b.WriteString(placeholder(m.Kind))
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func placeholder(kind Kind) string {
	switch kind {
	case KindEmail:
		return "[EMAIL_REDACTED]"
	case KindPhone:
		return "[PHONE_REDACTED]"
	case KindSSN:
		return "[SSN_REDACTED]"
	case KindCreditCard:
		return "[CC_REDACTED]"
	case KindIPAddress:
		return "[IP_REDACTED]"
	default:
		return "[REDACTED]"
	}
}

// luhnValid validates a card number, ignoring spaces and dashes
func luhnValid(number string) bool {
	number = strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(number) < 13 || len(number) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}
