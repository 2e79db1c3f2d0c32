package tracefile

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/lightninglabs/aesctrl/aesutils"
	"github.com/lightninglabs/aesctrl/sim"
)

// CompressedExt is the file extension that selects zstd compression.
const CompressedExt = ".zst"

// File is a trace file on disk. It implements sim.TraceSink.
type File struct {
	*Writer

	path string
	f    *os.File
	buf  *bufio.Writer
	zw   *zstd.Encoder
}

// Create creates or truncates a trace file. Paths ending in CompressedExt
// are zstd compressed. Missing parent directories are created.
func Create(path string) (*File, error) {
	err := aesutils.CreateDir(filepath.Dir(path), 0700)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	tf := &File{
		path: path,
		f:    f,
	}

	var w io.Writer = f
	if strings.HasSuffix(path, CompressedExt) {
		tf.zw, err = zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		w = tf.zw
	}

	tf.buf = bufio.NewWriter(w)
	tf.Writer = NewWriter(tf.buf)

	log.Debugf("Writing trace to %v", path)

	return tf, nil
}

// Close flushes all buffered records and closes the file.
func (t *File) Close() error {
	if err := t.buf.Flush(); err != nil {
		_ = t.f.Close()
		return err
	}

	if t.zw != nil {
		if err := t.zw.Close(); err != nil {
			_ = t.f.Close()
			return err
		}
	}

	log.Debugf("Closed trace %v after %d records", t.path, t.Count())

	return t.f.Close()
}

// ReadFile reads every record of a trace file written by Create.
func ReadFile(path string) ([]sim.TickRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, CompressedExt) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()

		r = zr
	}

	return NewReader(r).ReadAll()
}

// A compile time check to ensure File implements the sim.TraceSink
// interface.
var _ sim.TraceSink = (*File)(nil)
