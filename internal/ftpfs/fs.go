package ftpfs

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kumarlokesh/ftpkit/internal/pathtrie"
)

// FileSystem exposes file system style operations over a pool of FTP
// connections.
type FileSystem struct {
	pool    *Pool
	workers int
}

// New creates a file system over the given pool
func New(pool *Pool) *FileSystem {
	return &FileSystem{
		pool:    pool,
		workers: pool.cfg.MaxWorkers,
	}
}

// ListDir lists a remote directory and splits the entries into directories
// and files. Symbolic links are reported as files. The returned paths are
// joined with the listed directory.
func (fs *FileSystem) ListDir(ctx context.Context, dir string) (dirs, files []string, err error) {
	conn, err := fs.pool.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer fs.pool.Put(conn)

	return fs.listDir(conn, dir)
}

func (fs *FileSystem) listDir(conn Conn, dir string) (dirs, files []string, err error) {
	log.Debug().Str("path", dir).Msg("listing remote directory")

	entries, err := conn.List(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list remote directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}

		abspath := path.Join(dir, entry.Name)
		if entry.Type == EntryTypeDir {
			dirs = append(dirs, abspath)
		} else {
			files = append(files, abspath)
		}
	}
	return dirs, files, nil
}

// WalkFunc is called once per visited directory with the directory's own
// path and its immediate subdirectory and file paths.
type WalkFunc func(dir string, dirs, files []string) error

type walkResult struct {
	dir   string
	dirs  []string
	files []string
	err   error
}

// Walk traverses a remote directory tree, listing directories concurrently
// over the pooled connections. fn is invoked sequentially, and a directory is
// always visited before any directory below it. A non-nil error from fn or a
// listing failure stops the traversal.
func (fs *FileSystem) Walk(ctx context.Context, root string, fn WalkFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan walkResult)

	var wg sync.WaitGroup
	var visit func(dir string)
	visit = func(dir string) {
		defer wg.Done()

		dirs, files, err := fs.ListDir(ctx, dir)
		select {
		case results <- walkResult{dir: dir, dirs: dirs, files: files, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}

		for _, subdir := range dirs {
			wg.Add(1)
			go visit(subdir)
		}
	}

	wg.Add(1)
	go visit(root)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case res := <-results:
			if res.err != nil {
				return res.err
			}
			if err := fn(res.dir, res.dirs, res.files); err != nil {
				return err
			}
		case <-done:
			return ctx.Err()
		}
	}
}

// MakeDirs creates the given remote directories, including every missing
// ancestor. Paths are deduplicated through a trie first, so shared parents
// are probed and created exactly once, and its pre-order enumeration
// guarantees every directory is created after its parent.
func (fs *FileSystem) MakeDirs(ctx context.Context, paths ...string) error {
	conn, err := fs.pool.Get(ctx)
	if err != nil {
		return err
	}
	defer fs.pool.Put(conn)

	trie := pathtrie.New()
	for _, p := range paths {
		trie.Insert(p)
	}

	for dirpath := range trie.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		// An existing directory answers the cwd probe; anything else gets
		// created.
		if err := conn.ChangeDir(dirpath); err == nil {
			continue
		}

		log.Debug().Str("path", dirpath).Msg("creating remote directory")
		if err := conn.MakeDir(dirpath); err != nil {
			return fmt.Errorf("failed to create remote directory %q: %w", dirpath, err)
		}
	}
	return nil
}

// Remove deletes a single remote file
func (fs *FileSystem) Remove(ctx context.Context, file string) error {
	conn, err := fs.pool.Get(ctx)
	if err != nil {
		return err
	}
	defer fs.pool.Put(conn)

	log.Debug().Str("path", file).Msg("deleting remote file")
	if err := conn.Delete(file); err != nil {
		return fmt.Errorf("failed to delete remote file %q: %w", file, err)
	}
	return nil
}

// RemoveTree recursively removes a remote directory tree. Files are deleted
// concurrently first, then directories are removed deepest-first so every
// directory is empty by the time it is deleted.
func (fs *FileSystem) RemoveTree(ctx context.Context, root string) error {
	var dirs []string
	var files []string
	err := fs.Walk(ctx, root, func(dir string, _, nondirs []string) error {
		dirs = append(dirs, dir)
		files = append(files, nondirs...)
		return nil
	})
	if err != nil {
		return err
	}

	if len(files) > 0 {
		log.Debug().Int("count", len(files)).Msg("deleting remote files")

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fs.workers)
		for _, file := range files {
			g.Go(func() error {
				return fs.Remove(gctx, file)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	conn, err := fs.pool.Get(ctx)
	if err != nil {
		return err
	}
	defer fs.pool.Put(conn)

	// Walk reports parents before children, so deleting in reverse removes
	// the leaves first.
	for i := len(dirs) - 1; i >= 0; i-- {
		dir := dirs[i]
		if dir == string(pathtrie.Sep) {
			continue
		}

		log.Debug().Str("path", dir).Msg("removing remote directory")
		if err := conn.RemoveDir(dir); err != nil {
			return fmt.Errorf("failed to remove remote directory %q: %w", dir, err)
		}
	}
	return nil
}

// Download copies the remote file's contents into w, returning the number of
// bytes written.
func (fs *FileSystem) Download(ctx context.Context, file string, w io.Writer) (int64, error) {
	conn, err := fs.pool.Get(ctx)
	if err != nil {
		return 0, err
	}
	defer fs.pool.Put(conn)

	r, err := conn.Retr(file)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch remote file %q: %w", file, err)
	}
	defer r.Close()

	n, err := io.Copy(w, r)
	if err != nil {
		return n, fmt.Errorf("failed to read remote file %q: %w", file, err)
	}
	return n, nil
}

// Upload stores r as the remote file
func (fs *FileSystem) Upload(ctx context.Context, r io.Reader, file string) error {
	conn, err := fs.pool.Get(ctx)
	if err != nil {
		return err
	}
	defer fs.pool.Put(conn)

	if err := conn.Stor(file, r); err != nil {
		return fmt.Errorf("failed to store remote file %q: %w", file, err)
	}
	return nil
}
