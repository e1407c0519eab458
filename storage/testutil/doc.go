// Package testutil provides an in-memory storage.Storage for tests.
//
//	store := testutil.NewMemory()
//	store.Upload(ctx, "out/a.json", strings.NewReader("{}"))
//	store.FailNext("upload", 2) // the next two uploads return errors
package testutil
