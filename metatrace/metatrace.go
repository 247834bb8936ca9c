// Package metatrace records metadata-channel signals as a CBOR stream.
//
// Each signal becomes one Record encoded with the canonical CBOR profile, so
// traces of identical runs are byte-identical apart from timestamps.
package metatrace

import (
	"errors"
	"io"
	"sync"
	"time"

	cbor "github.com/fxamacker/cbor/v2"

	"github.com/danmuck/tallbag"
)

// Record is one traced metadata signal.
type Record[M any] struct {
	Seq   uint64 `cbor:"1,keyasint"`
	AtNS  int64  `cbor:"2,keyasint"`
	Value M      `cbor:"3,keyasint"`
}

// Writer appends records to an io.Writer. It is safe under concurrent use.
// The first encoding error is kept and later signals are dropped.
type Writer[M any] struct {
	now func() time.Time

	mu  sync.Mutex
	enc *cbor.Encoder
	seq uint64
	err error
}

func NewWriter[M any](w io.Writer) (*Writer[M], error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return &Writer[M]{
		now: time.Now,
		enc: em.NewEncoder(w),
	}, nil
}

// Channel returns the metadata channel feeding w.
func (w *Writer[M]) Channel() tallbag.MetaChannel[M] {
	return w.Write
}

// Write appends one record.
func (w *Writer[M]) Write(v M) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	w.seq++
	w.err = w.enc.Encode(Record[M]{
		Seq:   w.seq,
		AtNS:  w.now().UnixNano(),
		Value: v,
	})
}

// Count is the number of records written.
func (w *Writer[M]) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

func (w *Writer[M]) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// ReadAll decodes every record in r.
func ReadAll[M any](r io.Reader) ([]Record[M], error) {
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	dec := dm.NewDecoder(r)
	var out []Record[M]
	for {
		var rec Record[M]
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, rec)
	}
}
