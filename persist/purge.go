package persist

import (
	"context"
	"path"
	"strings"

	"github.com/kbukum/modkit/errors"
	"github.com/kbukum/modkit/storage"
)

// PurgeDirectory deletes every object under root whose root-relative path
// is not in keep, and returns how many were deleted. root is cleaned before
// listing, so "./out", "/out" and "out/" all name the same directory.
func PurgeDirectory(ctx context.Context, store storage.Storage, root string, keep map[string]bool) (int, error) {
	files, err := store.List(ctx, normalize(root))
	if err != nil {
		return 0, errors.StorageError("list", root, err)
	}

	deleted := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if keep[RelativeTo(root, f.Path)] {
			continue
		}
		if err := store.Delete(ctx, f.Path); err != nil {
			return deleted, errors.StorageError("delete", f.Path, err)
		}
		deleted++
	}
	return deleted, nil
}

// RelativeTo strips the root prefix from p. Both are cleaned first, so
// "/out/a.json", "out/a.json" and "./out//a.json" are all "a.json" under
// root "out". Paths outside root are returned cleaned but otherwise
// unchanged.
func RelativeTo(root, p string) string {
	root, p = normalize(root), normalize(p)
	if root == "" {
		return p
	}
	return strings.TrimPrefix(p, root+"/")
}

// normalize cleans p into the slash-separated, root-relative form storage
// backends list paths in.
func normalize(p string) string {
	return strings.Trim(path.Clean("/"+p), "/")
}
