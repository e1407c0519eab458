// Package testutil builds Generic modules whose callbacks are counted and
// ordered, for tests of the runner and of custom persistence strategies.
//
//	rec := testutil.NewRecorder(persist.NewStorageFactory(mem, "out"))
//	a := rec.Module("a", nil)
//	b := rec.Module("b", []module.Module{a}, testutil.Ephemeral())
//	...
//	rec.Counts("a").PostAction // 1
package testutil
