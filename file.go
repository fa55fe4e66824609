package binlogrouter

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// LocalFile is the default BinlogFile implementation: a single
// directory holding one active binlog file at a time, switched by
// Rotate. Adapted from the teacher's local.go, which walks a directory
// of existing binlog files for a *consuming* replica (ListFiles,
// binlog.index bookkeeping); here the router is the one producing the
// files, so the directory-scan logic is replaced with a single
// currently-open *os.File and a buffered writer.
type LocalFile struct {
	dir string
	cur *os.File
	w   *bufio.Writer
}

// NewLocalFile opens (creating if necessary) name under dir as the
// initial active binlog file and returns a LocalFile ready to Append.
func NewLocalFile(dir, name string) (*LocalFile, error) {
	f := &LocalFile{dir: dir}
	if err := f.open(name); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *LocalFile) open(name string) error {
	path := filepath.Join(f.dir, name)
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Annotate(err, "open binlog file")
	}
	f.cur = fh
	f.w = bufio.NewWriter(fh)
	return nil
}

// Append writes b to the currently active file, per spec.md §6's
// file.append contract.
func (f *LocalFile) Append(b []byte) error {
	if _, err := f.w.Write(b); err != nil {
		return errors.Annotate(err, "append to binlog file")
	}
	return nil
}

// Rotate flushes and closes the current file and opens name as the new
// active file. pos is accepted per the BinlogFile contract (spec.md §6)
// but LocalFile does not itself seek — a freshly rotated-to file is
// always appended to from its current end, matching the master's own
// convention that rotate always names a file starting at a known
// position.
func (f *LocalFile) Rotate(name string, pos uint64) error {
	_ = pos
	if err := f.Flush(); err != nil {
		return err
	}
	if f.cur != nil {
		if err := f.cur.Close(); err != nil {
			return errors.Annotate(err, "close rotated binlog file")
		}
	}
	return f.open(name)
}

// Flush pushes buffered bytes to the OS, per spec.md §6's file.flush
// contract. fsync policy is explicitly out of scope (spec.md §1's
// durability non-goal).
func (f *LocalFile) Flush() error {
	if err := f.w.Flush(); err != nil {
		return errors.Annotate(err, "flush binlog file")
	}
	return nil
}
