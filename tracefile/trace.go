package tracefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightningnetwork/lnd/tlv"
)

// MaxRecordSize bounds the encoded size of a single record.
const MaxRecordSize = 1024

var (
	// ErrRecordTooLarge is returned when a length prefix exceeds
	// MaxRecordSize.
	ErrRecordTooLarge = errors.New("trace record too large")

	// ErrMalformedRecord is returned when a record decodes but does not
	// describe a valid tick.
	ErrMalformedRecord = errors.New("malformed trace record")
)

// Writer appends tick records to a trace. Each record is a TLV stream
// prefixed by its length as a varint.
type Writer struct {
	w       io.Writer
	buf     bytes.Buffer
	scratch [8]byte
	count   uint64
}

// NewWriter returns a Writer appending to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRecord encodes and appends a single record.
func (w *Writer) WriteRecord(rec sim.TickRecord) error {
	enc := encode(rec)
	stream, err := enc.stream()
	if err != nil {
		return err
	}

	w.buf.Reset()
	if err := stream.Encode(&w.buf); err != nil {
		return fmt.Errorf("unable to encode tick %d: %w", rec.Tick,
			err)
	}

	err = tlv.WriteVarInt(w.w, uint64(w.buf.Len()), &w.scratch)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(w.buf.Bytes()); err != nil {
		return err
	}
	w.count++

	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() uint64 {
	return w.count
}

// A compile time check to ensure Writer implements the sim.TraceSink
// interface.
var _ sim.TraceSink = (*Writer)(nil)

// Reader reads tick records written by a Writer.
type Reader struct {
	r       io.Reader
	scratch [8]byte
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record, or io.EOF once the trace is exhausted.
func (r *Reader) Next() (sim.TickRecord, error) {
	length, err := tlv.ReadVarInt(r.r, &r.scratch)
	if err != nil {
		// A clean EOF can only happen on a record boundary.
		return sim.TickRecord{}, err
	}
	if length > MaxRecordSize {
		return sim.TickRecord{}, fmt.Errorf("%w: %d bytes",
			ErrRecordTooLarge, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return sim.TickRecord{}, fmt.Errorf("truncated record: %w",
			err)
	}

	var enc encodedRecord
	stream, err := enc.stream()
	if err != nil {
		return sim.TickRecord{}, err
	}
	if err := stream.Decode(bytes.NewReader(payload)); err != nil {
		return sim.TickRecord{}, fmt.Errorf("%w: %w",
			ErrMalformedRecord, err)
	}

	return enc.decode()
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]sim.TickRecord, error) {
	var records []sim.TickRecord
	for {
		rec, err := r.Next()
		switch {
		case errors.Is(err, io.EOF):
			return records, nil

		case err != nil:
			return records, err
		}

		records = append(records, rec)
	}
}
