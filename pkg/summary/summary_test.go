package summary_test

import (
	"fmt"
	"testing"

	"github.com/matzehuels/flowform/pkg/compiler"
	"github.com/matzehuels/flowform/pkg/summary"
	"github.com/matzehuels/flowform/pkg/visibility"
)

const diagram = `A[**1 Intro**]
B{Has deadline?}
A --> B
B -->|Yes| C[Use calendar]
B -->|No| D{Recurring?}

E[**2 Tools**]
F{Channels?}
F -.->|Mail| G[Set up a shared inbox]
F -.->|Chat| H[Set up a shared inbox]
F -.->|Phone| I[Publish a phone list]`

func setup(t *testing.T) (*visibility.State, *visibility.Engine, func() summary.Summary) {
	t.Helper()
	spec := compiler.Compile(diagram, compiler.Options{}).Spec
	st := visibility.FromSpec(spec)
	eng := visibility.NewEngine(0, nil)
	eng.Update(st)
	return st, eng, func() summary.Summary { return summary.Build(spec, st) }
}

func TestBuildEmpty(t *testing.T) {
	_, _, build := setup(t)
	sum := build()
	if !sum.Empty() {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
	if sum.String() != "No answers given.\n" {
		t.Errorf("String() = %q", sum.String())
	}
}

func TestBuildChoicesAndRecommendations(t *testing.T) {
	st, eng, build := setup(t)
	for _, a := range []string{"Mail", "Chat", "Phone"} {
		if err := st.Select("F", a); err != nil {
			t.Fatal(err)
		}
	}
	eng.Update(st)

	sum := build()
	if len(sum.Sections) != 1 || sum.Sections[0].ID != "E" {
		t.Fatalf("sections = %+v", sum.Sections)
	}
	sec := sum.Sections[0]
	if len(sec.Entries) != 1 || len(sec.Entries[0].Answers) != 3 {
		t.Errorf("entries = %+v", sec.Entries)
	}
	want := []string{"Set up a shared inbox", "Publish a phone list"}
	if fmt.Sprint(sec.Recommendations) != fmt.Sprint(want) {
		t.Errorf("recommendations = %v, want %v", sec.Recommendations, want)
	}
}

func TestBuildSkipsHiddenQuestions(t *testing.T) {
	st, eng, build := setup(t)
	if err := st.Select("B", "No"); err != nil {
		t.Fatal(err)
	}
	eng.Update(st)
	if err := st.SetText("D", "  monthly "); err != nil {
		t.Fatal(err)
	}

	sum := build()
	entries := sum.Sections[0].Entries
	if len(entries) != 2 || entries[1].QuestionID != "D" || entries[1].Answers[0] != "monthly" {
		t.Fatalf("entries = %+v", entries)
	}

	if err := st.Select("B", "Yes"); err != nil {
		t.Fatal(err)
	}
	eng.Update(st)

	entries = build().Sections[0].Entries
	if len(entries) != 1 || entries[0].QuestionID != "B" {
		t.Errorf("hidden question D should be left out, entries = %+v", entries)
	}
}

func ExampleBuild() {
	spec := compiler.Compile(diagram, compiler.Options{}).Spec
	st := visibility.FromSpec(spec)
	eng := visibility.NewEngine(0, nil)
	eng.Update(st)

	_ = st.Select("B", "Yes")
	_ = st.Select("F", "Phone")
	eng.Update(st)

	fmt.Print(summary.Build(spec, st))
	// Output:
	// 1 Intro
	//   * Use calendar
	//   Has deadline? Yes
	//
	// 2 Tools
	//   * Publish a phone list
	//   Channels? Phone
}
