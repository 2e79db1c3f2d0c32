package tracefile

import (
	"fmt"

	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/lightningnetwork/lnd/tlv"
)

const (
	typeTick      tlv.Type = 0
	typeState     tlv.Type = 2
	typeNextState tlv.Type = 4
	typeInFlags   tlv.Type = 6
	typeReqOp     tlv.Type = 8
	typeReqKeyLen tlv.Type = 10
	typeOutFlags  tlv.Type = 12
	typeSelectors tlv.Type = 14
)

// numSelectors is the number of multi-valued output fields stored in the
// selector record.
const numSelectors = 8

// encodedRecord is the flattened form of a tick record that maps onto a
// TLV stream.
type encodedRecord struct {
	tick      uint64
	state     uint8
	nextState uint8
	inFlags   uint32
	reqOp     uint8
	reqKeyLen uint16
	outFlags  uint32
	selectors []byte
}

// stream returns a TLV stream reading from and writing to e.
func (e *encodedRecord) stream() (*tlv.Stream, error) {
	return tlv.NewStream(
		tlv.MakePrimitiveRecord(typeTick, &e.tick),
		tlv.MakePrimitiveRecord(typeState, &e.state),
		tlv.MakePrimitiveRecord(typeNextState, &e.nextState),
		tlv.MakePrimitiveRecord(typeInFlags, &e.inFlags),
		tlv.MakePrimitiveRecord(typeReqOp, &e.reqOp),
		tlv.MakePrimitiveRecord(typeReqKeyLen, &e.reqKeyLen),
		tlv.MakePrimitiveRecord(typeOutFlags, &e.outFlags),
		tlv.MakePrimitiveRecord(typeSelectors, &e.selectors),
	)
}

// inputFlags lists the single bit inputs in storage order. New flags must
// only be appended.
func inputFlags(in *cipherctrl.Inputs) []*bool {
	return []*bool{
		&in.InValid, &in.OutReady, &in.SubBytesReq,
		&in.KeyExpandReq, &in.ReseedAck, &in.Faults.MuxSelErr,
		&in.Faults.SparseEncErr, &in.Faults.OpErr,
		&in.Request.Crypt, &in.Request.DeriveKey,
		&in.Request.Reseed, &in.Request.KeyClear,
		&in.Request.DataClear,
	}
}

// outputFlags lists the single bit outputs in storage order. New flags must
// only be appended.
func outputFlags(out *cipherctrl.Outputs) []*bool {
	return []*bool{
		&out.InReady, &out.OutValid, &out.StateWE, &out.KeyFullWE,
		&out.KeyDecWE, &out.SubBytesEn, &out.SubBytesAck,
		&out.KeyExpandEn, &out.KeyExpandAck, &out.KeyExpandClear,
		&out.PrngUpdate, &out.PrngReseedReq, &out.Crypt,
		&out.DeriveKey, &out.Reseed, &out.KeyClear, &out.DataClear,
		&out.Alert,
	}
}

func packFlags(flags []*bool) uint32 {
	var v uint32
	for i, f := range flags {
		if *f {
			v |= 1 << i
		}
	}

	return v
}

func unpackFlags(v uint32, flags []*bool) {
	for i, f := range flags {
		*f = v&(1<<i) != 0
	}
}

// encode flattens a tick record.
func encode(rec sim.TickRecord) encodedRecord {
	out := rec.Outputs

	return encodedRecord{
		tick:      rec.Tick,
		state:     uint8(rec.State),
		nextState: uint8(rec.NextState),
		inFlags:   packFlags(inputFlags(&rec.Inputs)),
		reqOp:     uint8(rec.Inputs.Request.Op),
		reqKeyLen: uint16(rec.Inputs.Request.KeyLen),
		outFlags:  packFlags(outputFlags(&rec.Outputs)),
		selectors: []byte{
			uint8(out.StateSel), uint8(out.AddRKSel),
			uint8(out.KeyWords), uint8(out.RoundKeySel),
			uint8(out.KeyFullSel), uint8(out.KeyDecSel),
			uint8(out.KeyExpandOp), out.KeyExpandRound,
		},
	}
}

// decode rebuilds a tick record.
func (e *encodedRecord) decode() (sim.TickRecord, error) {
	if len(e.selectors) != numSelectors {
		return sim.TickRecord{}, fmt.Errorf("%w: %d selectors",
			ErrMalformedRecord, len(e.selectors))
	}

	rec := sim.TickRecord{
		Tick:      e.tick,
		State:     cipherctrl.State(e.state),
		NextState: cipherctrl.State(e.nextState),
	}

	unpackFlags(e.inFlags, inputFlags(&rec.Inputs))
	rec.Inputs.Request.Op = cipherctrl.Operation(e.reqOp)
	rec.Inputs.Request.KeyLen = cipherctrl.KeyLength(e.reqKeyLen)

	out := &rec.Outputs
	unpackFlags(e.outFlags, outputFlags(out))

	s := e.selectors
	out.StateSel = cipherctrl.StateSel(s[0])
	out.AddRKSel = cipherctrl.AddRKSel(s[1])
	out.KeyWords = cipherctrl.KeyWords(s[2])
	out.RoundKeySel = cipherctrl.RoundKeySel(s[3])
	out.KeyFullSel = cipherctrl.KeyFullSel(s[4])
	out.KeyDecSel = cipherctrl.KeyDecSel(s[5])
	out.KeyExpandOp = cipherctrl.Operation(s[6])
	out.KeyExpandRound = s[7]

	return rec, nil
}
