package build

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// copyTree copies every file and directory under src into dst, running up to
// workers file copies at once. Directories are created during the walk, so a
// file's parent always exists before its copy is scheduled. Symlinks are
// recreated, not followed. A directory whose path equals skip is left out
// along with its contents. It returns the number of files copied.
func copyTree(ctx context.Context, src, dst, skip string, workers int) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", src)
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var copied atomic.Int64
	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() && skip != "" && path == skip {
			return fs.SkipDir
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case !d.Type().IsRegular():
			// sockets, devices and pipes have no content to copy
			return nil
		}

		g.Go(func() error {
			if err := copyFile(path, target); err != nil {
				return err
			}
			copied.Add(1)
			return nil
		})
		return nil
	})

	// Always drain scheduled copies before returning.
	// A failed copy cancels ctx, which also stops the walk.
	if err := g.Wait(); err != nil {
		return int(copied.Load()), err
	}
	return int(copied.Load()), walkErr
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
