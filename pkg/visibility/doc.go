// Package visibility decides which questions of a form are shown.
//
// A question is visible exactly when every requirement it carries names an
// answer that is selected on a visible question. Hiding a question clears
// its answers, which can in turn hide its dependents; [Engine.Update]
// repeats sweeps until nothing changes or its iteration bound is hit.
//
// The engine works on any [Form]. [State] is the in-memory implementation
// used by the CLI, the HTTP server and tests:
//
//	st := visibility.FromSpec(spec)
//	eng := visibility.NewEngine(0, logger)
//	eng.Update(st)
//	_ = st.Select("B", "No")
//	res := eng.Update(st)
package visibility
