// Package domdrift fingerprints the structure of scraped pages so that an
// extraction failure can be classified. Selectors here break for two very
// different reasons: a flaky load, or the site shipping a redesign. The
// distance between the failing page's fingerprint and the last good one
// tells the two apart in the log, and nothing more; drift never changes
// what the scraper does.
package domdrift

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"golang.org/x/net/html"
)

// Verdicts, ordered by how much of the page moved.
const (
	VerdictStable   = "layout-stable"
	VerdictShifted  = "layout-shifted"
	VerdictRebuilt  = "layout-rebuilt"
	VerdictNoSignal = "no-baseline"
)

// Distance bands for the verdicts. A handful of differing bits is churn a
// fare page produces on its own (ride availability, promo banners); half
// the fingerprint moving means the markup was rebuilt.
const (
	stableMaxDistance  = 10
	shiftedMaxDistance = 24
)

// shingleWidth is the tag n-gram width. Single tags lose ordering;
// triples keep enough of it to notice re-nesting.
const shingleWidth = 3

// Fingerprint computes a 64-bit structural fingerprint of a page. Only
// element names and their order contribute; text, classes and attributes
// do not, so price changes between runs never register as drift.
func Fingerprint(rawHTML string) uint64 {
	tags := tagSequence(rawHTML)
	if len(tags) == 0 {
		return 0
	}

	tokens := shingles(tags, shingleWidth)
	if len(tokens) == 0 {
		tokens = tags
	}
	return simhash(tokens)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Verdict classifies how far current has drifted from baseline.
func Verdict(baseline, current uint64) string {
	if baseline == 0 {
		return VerdictNoSignal
	}
	switch d := Distance(baseline, current); {
	case d <= stableMaxDistance:
		return VerdictStable
	case d <= shiftedMaxDistance:
		return VerdictShifted
	default:
		return VerdictRebuilt
	}
}

// simhash folds tokens into a single 64-bit fingerprint: each token's
// FNV-64a hash votes per bit, and the majority wins the bit.
func simhash(tokens []string) uint64 {
	var vector [64]int

	for _, token := range tokens {
		h := fnv.New64a()
		h.Write([]byte(token))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// tagSequence walks rawHTML with the tokenizer and collects opening tag
// names in document order.
func tagSequence(rawHTML string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var tags []string

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			tags = append(tags, string(tn))
		}
	}
}

// shingles joins tokens into overlapping n-grams. Returns nil when there
// are fewer tokens than n.
func shingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}

	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		out = append(out, strings.Join(tokens[i:i+n], "_"))
	}
	return out
}
