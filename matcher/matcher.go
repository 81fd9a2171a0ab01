// Package matcher classifies file paths under a configured language policy.
package matcher

import (
	"regexp"
	"strings"

	"gopkg.in/src-d/go-errors.v1"
)

// ErrUnknownLanguage signals a language name with no registered pattern
// list.
var ErrUnknownLanguage = errors.NewKind("no pattern list for language %s")

// Outcome is the classification of a path.
type Outcome int

const (
	// Ignore means the path matched neither list and plays no further
	// role.
	Ignore Outcome = iota
	// Accept means the file's history is extracted.
	Accept
	// Deny marks files that are explicitly unwanted, e.g. vendored or
	// minified sources. The project they belong to is flagged.
	Deny
)

// PatternList classifies paths as accepted, denied or ignored. Deny
// patterns win over accept patterns, so a minified file with an accepted
// extension is still denied. A PatternList is immutable after construction
// and safe for concurrent use.
type PatternList struct {
	accept []*regexp.Regexp
	deny   []*regexp.Regexp
}

// New compiles a pattern list from accept and deny expressions.
func New(accept, deny []string) (*PatternList, error) {
	l := &PatternList{}
	for _, expr := range accept {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}

		l.accept = append(l.accept, re)
	}

	for _, expr := range deny {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}

		l.deny = append(l.deny, re)
	}

	return l, nil
}

// Classify returns the outcome for the given path.
func (l *PatternList) Classify(path string) Outcome {
	for _, re := range l.deny {
		if re.MatchString(path) {
			return Deny
		}
	}

	for _, re := range l.accept {
		if re.MatchString(path) {
			return Accept
		}
	}

	return Ignore
}

// ForLanguage returns the preset pattern list registered under the given
// name.
func ForLanguage(name string) (*PatternList, error) {
	switch strings.ToLower(name) {
	case "javascript", "js":
		return JavaScript(), nil
	}

	return nil, ErrUnknownLanguage.New(name)
}

// JavaScript is the policy used for the JavaScript corpus: plain source
// files are accepted, vendored and minified trees are denied.
func JavaScript() *PatternList {
	l, err := New(
		[]string{`\.jsx?$`},
		[]string{
			`\.min\.js$`,
			`(^|/)node_modules/`,
			`(^|/)bower_components/`,
			`(^|/)vendor/`,
			`(^|/)dist/`,
		},
	)
	if err != nil {
		panic(err)
	}

	return l
}
