/*-------------------------------------------------------------------------
 *
 * signals.go
 *    Deterministic intent signal extraction for NeuronChat
 *
 * The intent classifier is pure: no network calls, no session
 * mutation. It extracts the cheap, explainable signals that route the
 * common cases (explicit list verbs, bare numbers, follow-up pronouns)
 * so the probabilistic classifiers are reserved for genuinely
 * ambiguous input.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/routing/signals.go
 *
 *-------------------------------------------------------------------------
 */

package routing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/neurondb/NeuronChat/internal/session"
)

/* Signals is the bundle extracted from one message */
type Signals struct {
	HasEntityListContext  bool
	IsExplicitListRequest bool
	IsFollowUpQuestion    bool
	/* ExtractedPosition is 0 when no positional reference was found */
	ExtractedPosition int
	IsOptionSelection bool
}

var listVerbs = map[string]bool{
	"list": true, "show": true, "find": true, "search": true,
	"display": true, "view": true, "fetch": true, "get": true,
}

var refreshWords = map[string]bool{
	"again": true, "refresh": true, "reload": true, "re-run": true,
	"rerun": true, "latest": true, "updated": true,
}

var followUpWords = map[string]bool{
	"it": true, "that": true, "this": true, "them": true,
	"those": true, "these": true, "its": true, "their": true,
	"one": true, "total": true, "amount": true, "sum": true,
	"which": true, "who": true, "when": true, "why": true,
	"how": true, "what": true, "much": true, "many": true,
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	"eleventh": 11, "twelfth": 12, "last": -1,
}

var (
	numberNPattern = regexp.MustCompile(`\b(?:number|item|option|no\.?)\s*#?(\d+)\b`)
	ordinalPattern = regexp.MustCompile(`\b(\d+)(?:st|nd|rd|th)\b`)
	bareIntPattern = regexp.MustCompile(`^\s*#?(\d+)\s*[.!?]?\s*$`)
)

/* IntentClassifier extracts routing signals from messages */
type IntentClassifier struct {
	maxPosition int
}

/*
NewIntentClassifier creates a signal extractor bounded by the given
maximum positional index
*/
func NewIntentClassifier(maxPosition int) *IntentClassifier {
	if maxPosition <= 0 {
		maxPosition = 20
	}
	return &IntentClassifier{maxPosition: maxPosition}
}

/* Signals extracts the full signal bundle for one message */
func (c *IntentClassifier) Signals(message string, sc *session.Context) Signals {
	list := sc.LastEntityList()
	s := Signals{HasEntityListContext: list != nil}

	words := tokenize(message)

	s.IsExplicitListRequest = c.isExplicitListRequest(words, list)
	s.ExtractedPosition = c.extractPosition(message, words, list)
	s.IsOptionSelection = c.isOptionSelection(message, list)

	if s.HasEntityListContext && !s.IsExplicitListRequest {
		s.IsFollowUpQuestion = containsAny(words, followUpWords)
	}

	return s
}

/*
isExplicitListRequest reports a list/search verb paired with a
record-type noun, or with a refresh word against existing context
*/
func (c *IntentClassifier) isExplicitListRequest(words []string, list *session.EntityList) bool {
	if !containsAny(words, listVerbs) {
		return false
	}
	if list != nil {
		entityType := strings.ToLower(list.EntityType)
		for _, w := range words {
			if w == entityType || w == entityType+"s" || strings.TrimSuffix(w, "s") == entityType {
				return true
			}
		}
		if containsAny(words, refreshWords) {
			return true
		}
	}
	/* A plural noun after the verb reads as a record type */
	for _, w := range words {
		if len(w) > 3 && strings.HasSuffix(w, "s") && !listVerbs[w] && !followUpWords[w] {
			return true
		}
	}
	return false
}

/*
extractPosition finds an ordinal word, "number N" pattern, or digit
suffix, bounded by the configured maximum
*/
func (c *IntentClassifier) extractPosition(message string, words []string, list *session.EntityList) int {
	lower := strings.ToLower(message)

	for _, w := range words {
		if n, ok := ordinalWords[w]; ok {
			if n == -1 {
				if list != nil && len(list.EntityIDs) > 0 {
					return c.bounded(len(list.EntityIDs))
				}
				return 0
			}
			return c.bounded(n)
		}
	}
	if m := numberNPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return c.bounded(n)
	}
	if m := ordinalPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return c.bounded(n)
	}
	if m := bareIntPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return c.bounded(n)
	}
	return 0
}

/*
isOptionSelection reports a bare small integer within the bounds of
the last presented list or its explicit display range
*/
func (c *IntentClassifier) isOptionSelection(message string, list *session.EntityList) bool {
	if list == nil {
		return false
	}
	m := bareIntPattern.FindStringSubmatch(strings.TrimSpace(message))
	if m == nil {
		return false
	}
	n, _ := strconv.Atoi(m[1])
	if list.RangeStart > 0 && list.RangeEnd >= list.RangeStart {
		return n >= list.RangeStart && n <= list.RangeEnd
	}
	return n >= 1 && n <= len(list.EntityIDs)
}

func (c *IntentClassifier) bounded(n int) int {
	if n < 1 || n > c.maxPosition {
		return 0
	}
	return n
}

func tokenize(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})
	for i, f := range fields {
		fields[i] = strings.Trim(f, "'")
	}
	return fields
}

func containsAny(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}
