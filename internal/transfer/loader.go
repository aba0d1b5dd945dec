// Package transfer implements batch download and upload of files and
// directory trees between the local machine and a remote FTP server.
package transfer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kumarlokesh/ftpkit/internal/config"
	"github.com/kumarlokesh/ftpkit/internal/ftpfs"
)

// FileSystem is the remote file system surface the loader drives
type FileSystem interface {
	Walk(ctx context.Context, root string, fn ftpfs.WalkFunc) error
	MakeDirs(ctx context.Context, paths ...string) error
	Download(ctx context.Context, file string, w io.Writer) (int64, error)
	Upload(ctx context.Context, r io.Reader, file string) error
}

// IsDirPath guesses whether a path names a directory. A trailing separator
// always means directory; a dot-prefixed base name or an extension means
// file; anything else is assumed to be a directory.
func IsDirPath(p string) bool {
	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(os.PathSeparator)) {
		return true
	}

	base := path.Base(filepath.ToSlash(p))
	if strings.HasPrefix(base, ".") || path.Ext(base) != "" {
		return false
	}
	return true
}

// pair is one source to destination file mapping
type pair struct {
	src string
	dst string
}

// Loader copies files between the local file system and a remote FTP file
// system, fanning batch work out over MaxWorkers goroutines.
type Loader struct {
	cfg *config.Config
	fs  FileSystem
}

// New creates a loader over the given remote file system
func New(cfg *config.Config, fs FileSystem) *Loader {
	return &Loader{
		cfg: cfg,
		fs:  fs,
	}
}

// Download copies a remote file or directory tree to the local machine.
// Supported shapes: file to file, file into directory, directory into
// directory. Downloading a directory into a file is rejected.
func (l *Loader) Download(ctx context.Context, src, dst string) error {
	src = strings.TrimRight(src, "*")

	switch {
	case !IsDirPath(src) && !IsDirPath(dst):
		return l.downloadFiles(ctx, []pair{{src: src, dst: dst}})

	case !IsDirPath(src) && IsDirPath(dst):
		return l.downloadFiles(ctx, []pair{{src: src, dst: filepath.Join(dst, path.Base(src))}})

	case IsDirPath(src) && !IsDirPath(dst):
		return fmt.Errorf("cannot download directory %q into file %q", src, dst)

	default:
		root := path.Clean(filepath.ToSlash(src))
		var pairs []pair
		err := l.fs.Walk(ctx, root, func(_ string, _, files []string) error {
			for _, file := range files {
				rel := strings.TrimPrefix(file, root+"/")
				pairs = append(pairs, pair{src: file, dst: filepath.Join(dst, filepath.FromSlash(rel))})
			}
			return nil
		})
		if err != nil {
			return err
		}
		return l.downloadFiles(ctx, pairs)
	}
}

// DownloadBatch downloads the listed remote files into the local directory,
// keeping their base names. Directory sources are rejected.
func (l *Loader) DownloadBatch(ctx context.Context, srcs []string, dstDir string) error {
	pairs := make([]pair, 0, len(srcs))
	for _, src := range srcs {
		if IsDirPath(src) {
			return fmt.Errorf("only file paths are allowed for batch downloads, got %q", src)
		}
		pairs = append(pairs, pair{src: src, dst: filepath.Join(dstDir, path.Base(src))})
	}
	return l.downloadFiles(ctx, pairs)
}

func (l *Loader) downloadFiles(ctx context.Context, pairs []pair) error {
	var completed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.MaxWorkers)
	for _, p := range pairs {
		g.Go(func() error {
			if err := l.downloadFile(ctx, p.src, p.dst); err != nil {
				return err
			}
			l.logProgress(completed.Add(1), int64(len(pairs)), "downloaded")
			return nil
		})
	}
	return g.Wait()
}

func (l *Loader) downloadFile(ctx context.Context, src, dst string) error {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create local directory %q: %w", dir, err)
		}
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create local file %q: %w", dst, err)
	}
	defer f.Close()

	if _, err := l.fs.Download(ctx, src, f); err != nil {
		return err
	}
	return f.Close()
}

// Upload copies a local file or directory tree to the remote server. The
// same shapes as Download are supported. For directory uploads every remote
// target directory is created first, in ancestor order, before any file is
// stored.
func (l *Loader) Upload(ctx context.Context, src, dst string) error {
	switch {
	case !IsDirPath(src) && !IsDirPath(dst):
		return l.uploadFiles(ctx, []pair{{src: src, dst: dst}})

	case !IsDirPath(src) && IsDirPath(dst):
		return l.uploadFiles(ctx, []pair{{src: src, dst: path.Join(dst, filepath.Base(src))}})

	case IsDirPath(src) && !IsDirPath(dst):
		return fmt.Errorf("cannot upload directory %q into file %q", src, dst)

	default:
		var dirs []string
		var pairs []pair
		root := filepath.Clean(src)
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			remote := path.Join(dst, filepath.ToSlash(rel))
			if d.IsDir() {
				dirs = append(dirs, remote)
			} else {
				pairs = append(pairs, pair{src: p, dst: remote})
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk local directory %q: %w", src, err)
		}

		if err := l.fs.MakeDirs(ctx, dirs...); err != nil {
			return err
		}
		return l.uploadFiles(ctx, pairs)
	}
}

// UploadBatch uploads the listed local files into the remote directory,
// keeping their base names. Directory sources are rejected.
func (l *Loader) UploadBatch(ctx context.Context, srcs []string, dstDir string) error {
	pairs := make([]pair, 0, len(srcs))
	for _, src := range srcs {
		if IsDirPath(src) {
			return fmt.Errorf("only file paths are allowed for batch uploads, got %q", src)
		}
		pairs = append(pairs, pair{src: src, dst: path.Join(dstDir, filepath.Base(src))})
	}
	return l.uploadFiles(ctx, pairs)
}

func (l *Loader) uploadFiles(ctx context.Context, pairs []pair) error {
	var completed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.MaxWorkers)
	for _, p := range pairs {
		g.Go(func() error {
			f, err := os.Open(p.src)
			if err != nil {
				return fmt.Errorf("failed to open local file %q: %w", p.src, err)
			}
			defer f.Close()

			if err := l.fs.Upload(ctx, f, p.dst); err != nil {
				return err
			}
			l.logProgress(completed.Add(1), int64(len(pairs)), "uploaded")
			return nil
		})
	}
	return g.Wait()
}

func (l *Loader) logProgress(completed, total int64, verb string) {
	if l.cfg.LogInterval <= 0 {
		return
	}
	if completed%int64(l.cfg.LogInterval) == 0 || completed == total {
		log.Info().Int64("completed", completed).Int64("total", total).Msgf("%s files", verb)
	}
}
