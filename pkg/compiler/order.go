package compiler

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/flowform/pkg/form"
)

var orderPrefix = regexp.MustCompile(`^(\d+)`)

// SectionOrder splits a section title into its leading integer and the
// remaining name. Titles without a numeric prefix order as 0; a prefix too
// large for an int orders last.
//
//	SectionOrder("2. Budget") // 2, "Budget"
func SectionOrder(title string) (int, string) {
	m := orderPrefix.FindString(title)
	if m == "" {
		return 0, strings.TrimSpace(title)
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Only digits match, so this is a range error: order it last.
		n = math.MaxInt
	}
	name := strings.TrimLeft(title[len(m):], " \t.):-")
	if name == "" {
		name = title
	}
	return n, name
}

// SortSections orders sections by their numeric prefix. Equal keys keep
// declaration order.
func SortSections(secs []form.Section) {
	slices.SortStableFunc(secs, func(a, b form.Section) int {
		return cmp.Compare(a.Order, b.Order)
	})
}

// SortQuestions orders questions by ascending dependency count. Equal counts
// keep discovery order.
func SortQuestions(qs []form.Question) {
	slices.SortStableFunc(qs, func(a, b form.Question) int {
		return cmp.Compare(len(a.Dependencies), len(b.Dependencies))
	})
}
