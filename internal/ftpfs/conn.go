// Package ftpfs provides an FTP-backed virtual file system. It emulates
// standard file system operations for files stored on a remote FTP server,
// multiplexing them over a pool of pre-authenticated connections.
package ftpfs

import (
	"context"
	"fmt"
	"io"

	"github.com/jlaffaye/ftp"
	"github.com/rs/zerolog/log"

	"github.com/kumarlokesh/ftpkit/internal/config"
)

// EntryType describes what kind of remote object a directory entry names
type EntryType int

const (
	EntryTypeFile EntryType = iota
	EntryTypeDir
	EntryTypeLink
)

// Entry is a single remote directory listing entry
type Entry struct {
	Name string
	Type EntryType
}

// Conn is the subset of FTP client operations the file system needs. The
// production implementation wraps a live server connection; tests provide an
// in-memory fake.
type Conn interface {
	List(path string) ([]Entry, error)
	ChangeDir(path string) error
	MakeDir(path string) error
	RemoveDir(path string) error
	Delete(path string) error
	Retr(path string) (io.ReadCloser, error)
	Stor(path string, r io.Reader) error
	Quit() error
}

// DialFunc opens a single authenticated connection to the configured server
type DialFunc func(ctx context.Context, cfg *config.Config) (Conn, error)

// serverConn adapts *ftp.ServerConn to the Conn interface
type serverConn struct {
	conn *ftp.ServerConn
}

func dialFTP(ctx context.Context, cfg *config.Config) (Conn, error) {
	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if cfg.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(cfg.Timeout))
	}

	conn, err := ftp.Dial(cfg.Addr(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr(), err)
	}

	if err := conn.Login(cfg.Credentials.Username, cfg.Credentials.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("failed to log in as %q: %w", cfg.Credentials.Username, err)
	}

	log.Debug().Str("addr", cfg.Addr()).Msg("ftp connection established")
	return &serverConn{conn: conn}, nil
}

func (s *serverConn) List(path string) ([]Entry, error) {
	raw, err := s.conn.List(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		entry := Entry{Name: e.Name}
		switch e.Type {
		case ftp.EntryTypeFolder:
			entry.Type = EntryTypeDir
		case ftp.EntryTypeLink:
			entry.Type = EntryTypeLink
		default:
			entry.Type = EntryTypeFile
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *serverConn) ChangeDir(path string) error { return s.conn.ChangeDir(path) }
func (s *serverConn) MakeDir(path string) error   { return s.conn.MakeDir(path) }
func (s *serverConn) RemoveDir(path string) error { return s.conn.RemoveDir(path) }
func (s *serverConn) Delete(path string) error    { return s.conn.Delete(path) }

func (s *serverConn) Retr(path string) (io.ReadCloser, error) {
	return s.conn.Retr(path)
}

func (s *serverConn) Stor(path string, r io.Reader) error {
	return s.conn.Stor(path, r)
}

func (s *serverConn) Quit() error { return s.conn.Quit() }
