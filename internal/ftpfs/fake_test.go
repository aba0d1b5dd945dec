package ftpfs_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kumarlokesh/ftpkit/internal/config"
	"github.com/kumarlokesh/ftpkit/internal/ftpfs"
)

// fakeServer is an in-memory stand-in for a remote FTP server. All fake
// connections share one server, mirroring how pooled connections talk to the
// same host.
type fakeServer struct {
	mu    sync.Mutex
	dirs  map[string]bool
	files map[string][]byte

	madeDirs    []string
	removedDirs []string
	quits       int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		dirs:  map[string]bool{"/": true},
		files: map[string][]byte{},
	}
}

// addDir registers a directory and all of its ancestors
func (s *fakeServer) addDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for dir != "/" && dir != "." {
		s.dirs[dir] = true
		dir = path.Dir(dir)
	}
}

// addFile registers a file, creating its parent directories
func (s *fakeServer) addFile(file string, data []byte) {
	s.addDir(path.Dir(file))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[file] = data
}

func (s *fakeServer) hasDir(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[dir]
}

type fakeConn struct {
	server *fakeServer
}

func (c *fakeConn) List(dir string) ([]ftpfs.Entry, error) {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirs[dir] {
		return nil, fmt.Errorf("550 %s: no such directory", dir)
	}

	entries := []ftpfs.Entry{
		{Name: ".", Type: ftpfs.EntryTypeDir},
		{Name: "..", Type: ftpfs.EntryTypeDir},
	}
	for d := range s.dirs {
		if path.Dir(d) == dir && d != dir {
			entries = append(entries, ftpfs.Entry{Name: path.Base(d), Type: ftpfs.EntryTypeDir})
		}
	}
	for f := range s.files {
		if path.Dir(f) == dir {
			entries = append(entries, ftpfs.Entry{Name: path.Base(f), Type: ftpfs.EntryTypeFile})
		}
	}
	return entries, nil
}

func (c *fakeConn) ChangeDir(dir string) error {
	if !c.server.hasDir(dir) {
		return fmt.Errorf("550 %s: no such directory", dir)
	}
	return nil
}

func (c *fakeConn) MakeDir(dir string) error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if parent := path.Dir(dir); !s.dirs[parent] {
		return fmt.Errorf("550 %s: parent does not exist", dir)
	}
	if s.dirs[dir] {
		return fmt.Errorf("550 %s: already exists", dir)
	}
	s.dirs[dir] = true
	s.madeDirs = append(s.madeDirs, dir)
	return nil
}

func (c *fakeConn) RemoveDir(dir string) error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirs[dir] {
		return fmt.Errorf("550 %s: no such directory", dir)
	}
	for d := range s.dirs {
		if path.Dir(d) == dir && d != dir {
			return fmt.Errorf("550 %s: directory not empty", dir)
		}
	}
	for f := range s.files {
		if path.Dir(f) == dir {
			return fmt.Errorf("550 %s: directory not empty", dir)
		}
	}
	delete(s.dirs, dir)
	s.removedDirs = append(s.removedDirs, dir)
	return nil
}

func (c *fakeConn) Delete(file string) error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[file]; !ok {
		return fmt.Errorf("550 %s: no such file", file)
	}
	delete(s.files, file)
	return nil
}

func (c *fakeConn) Retr(file string) (io.ReadCloser, error) {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[file]
	if !ok {
		return nil, fmt.Errorf("550 %s: no such file", file)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *fakeConn) Stor(file string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirs[path.Dir(file)] {
		return fmt.Errorf("553 %s: parent does not exist", file)
	}
	s.files[file] = data
	return nil
}

func (c *fakeConn) Quit() error {
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quits++
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Host:           "ftp.test",
		Credentials:    config.Credentials{Username: "test"},
		MaxConnections: 2,
		MaxWorkers:     2,
	}
}

// newTestFS opens a pool of fake connections against the server and returns
// a file system over it.
func newTestFS(t *testing.T, server *fakeServer) *ftpfs.FileSystem {
	t.Helper()

	pool := ftpfs.NewPool(testConfig(), ftpfs.WithDialFunc(
		func(ctx context.Context, cfg *config.Config) (ftpfs.Conn, error) {
			return &fakeConn{server: server}, nil
		},
	))
	require.NoError(t, pool.Open(context.Background()))
	t.Cleanup(func() { _ = pool.Close() })

	return ftpfs.New(pool)
}
