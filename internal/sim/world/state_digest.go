package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// StateDigest hashes the simulated state at nowTick. Two runs of the same
// scenario must produce the same digest at every tick.
func (w *World) StateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteI64(h, &tmp, w.cfg.Seed)

	for _, k := range w.chunks.LoadedChunkKeys() {
		ch := w.chunks.Chunks[k]
		digestWriteI64(h, &tmp, int64(k.CX))
		digestWriteI64(h, &tmp, int64(k.CZ))
		d := ch.Digest()
		h.Write(d[:])
	}

	for _, pos := range sortedPositions(w.furnaces) {
		c := w.furnaces[pos]
		digestWritePos(h, &tmp, pos)
		names := make([]string, 0, len(c.Slots))
		for n := range c.Slots {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			s := c.Slots[n]
			if s.Empty() {
				continue
			}
			h.Write([]byte(n))
			h.Write([]byte(s.Item))
			digestWriteI64(h, &tmp, int64(s.Count))
		}
	}

	for _, st := range w.Pumps() {
		h.Write([]byte(st.ID))
		h.Write([]byte(st.Stage))
		digestWriteI64(h, &tmp, int64(st.Tube))
		digestWriteI64(h, &tmp, int64(st.Progress))
		digestWriteI64(h, &tmp, int64(st.Total))
		digestWriteU64(h, &tmp, st.NextTick)
	}

	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWritePos(h hashWriter, tmp *[8]byte, p Vec3i) {
	digestWriteI64(h, tmp, int64(p.X))
	digestWriteI64(h, tmp, int64(p.Y))
	digestWriteI64(h, tmp, int64(p.Z))
}
