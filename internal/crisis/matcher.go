// Haven - Anonymous Military-Support Chat
// Copyright 2026 The Haven Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/havenchat/haven

package crisis

import "unicode"

// matcher is an Aho-Corasick automaton finding every phrase in a text in
// O(n + m + z). It is immutable after newMatcher returns and safe for
// concurrent use without locking.
type matcher struct {
	root     *acNode
	patterns []pattern
}

type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	output   []int // indices of patterns ending at this node
}

type pattern struct {
	text  string // folded phrase, reported on a match
	runes int    // length of the stemmed key in the automaton
}

// match is one occurrence of a phrase starting on a word boundary.
type match struct {
	phrase string
	start  int // rune offset in the normalized text
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode)}
}

// newMatcher builds the automaton. Blank and duplicate phrases are skipped.
func newMatcher(phrases []string) *matcher {
	m := &matcher{root: newACNode()}
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		key := stem(fold(p))
		if len(key) == 0 || seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		m.insert(len(m.patterns), string(key))
		m.patterns = append(m.patterns, pattern{text: string(fold(p)), runes: len(key)})
	}
	m.buildFailureLinks()
	return m
}

func (m *matcher) insert(index int, text string) {
	node := m.root
	for _, ch := range text {
		if node.children[ch] == nil {
			node.children[ch] = newACNode()
		}
		node = node.children[ch]
	}
	node.output = append(node.output, index)
}

// buildFailureLinks builds failure links breadth-first.
func (m *matcher) buildFailureLinks() {
	queue := make([]*acNode, 0, len(m.root.children))
	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = m.root
			} else {
				child.failure = fail.children[ch]
				child.output = append(child.output, child.failure.output...)
			}
		}
	}
}

// first returns the match that ends earliest in text. When
// several phrases end at the same position the longest one wins.
func (m *matcher) first(text string) (match, bool) {
	if len(m.patterns) == 0 {
		return match{}, false
	}

	runes := stem(fold(text))
	node := m.root

	for i, ch := range runes {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = m.root
			continue
		}
		node = node.children[ch]

		best, found := match{}, false
		for _, idx := range node.output {
			p := m.patterns[idx]
			start := i - p.runes + 1
			if !wordStart(runes, start) {
				continue
			}
			if !found || start < best.start {
				best, found = match{phrase: p.text, start: start}, true
			}
		}
		if found {
			return best, true
		}
	}
	return match{}, false
}

// wordStart reports whether runes[start] begins a word, so "end my life"
// does not match "spend my life". A phrase may end inside a word: "suicide"
// matches "suicides".
func wordStart(runes []rune, start int) bool {
	return start == 0 || !isWordRune(runes[start-1])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '‘' || r == '’' || r == 'ʼ'
}

// fold lowercases s, maps typographic apostrophes to ASCII and collapses
// every run of whitespace, punctuation and symbols to a single space, so
// "self-harm" and "self harm" fold alike.
func fold(s string) []rune {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case isApostrophe(r):
			r = '\''
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			space = true
			continue
		default:
			r = unicode.ToLower(r)
		}
		if space && len(out) > 0 {
			out = append(out, ' ')
		}
		space = false
		out = append(out, r)
	}
	return out
}

// stem drops an "ing" suffix from every word that keeps at least three
// runes without it, so "killing myself" reads as "kill myself".
func stem(folded []rune) []rune {
	out := make([]rune, 0, len(folded))
	word := 0
	flush := func(end int) {
		w := folded[word:end]
		if n := len(w); n >= 6 && string(w[n-3:]) == "ing" {
			w = w[:n-3]
		}
		out = append(out, w...)
	}
	for i, r := range folded {
		if r == ' ' {
			flush(i)
			out = append(out, ' ')
			word = i + 1
		}
	}
	flush(len(folded))
	return out
}
