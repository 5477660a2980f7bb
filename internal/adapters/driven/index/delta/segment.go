package delta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Segment file names under the index directory.
const (
	baseSegmentFile  = "base.seg"
	deltaSegmentFile = "delta.seg"
)

// persistLocked writes both segments to disk. Only live entries are
// persisted, so a reloaded base carries no superseded slots or tombstones.
// Callers hold the write lock.
func (i *Index) persistLocked() error {
	if !i.dirty {
		return nil
	}

	baseEntries := make([]entry, 0, len(i.baseLive))
	for _, slot := range i.baseLive {
		baseEntries = append(baseEntries, i.base[slot])
	}
	sort.Slice(baseEntries, func(a, b int) bool { return baseEntries[a].docID < baseEntries[b].docID })

	deltaEntries := make([]entry, 0, len(i.delta))
	for _, e := range i.delta {
		deltaEntries = append(deltaEntries, e)
	}
	sort.Slice(deltaEntries, func(a, b int) bool { return deltaEntries[a].docID < deltaEntries[b].docID })

	if err := writeSegment(filepath.Join(i.cfg.Dir, baseSegmentFile), i.dim, baseEntries); err != nil {
		return fmt.Errorf("writing base segment: %w", err)
	}
	if err := writeSegment(filepath.Join(i.cfg.Dir, deltaSegmentFile), i.dim, deltaEntries); err != nil {
		return fmt.Errorf("writing delta segment: %w", err)
	}

	i.dirty = false
	return nil
}

// load restores both segments from disk. Missing files mean a fresh index.
func (i *Index) load() error {
	dim, baseEntries, err := readSegment(filepath.Join(i.cfg.Dir, baseSegmentFile))
	if err != nil {
		return fmt.Errorf("reading base segment: %w", err)
	}
	i.dim = dim
	i.base = baseEntries
	for slot, e := range baseEntries {
		i.baseLive[e.docID] = slot
	}

	dim, deltaEntries, err := readSegment(filepath.Join(i.cfg.Dir, deltaSegmentFile))
	if err != nil {
		return fmt.Errorf("reading delta segment: %w", err)
	}
	if i.dim == 0 {
		i.dim = dim
	} else if dim != 0 && dim != i.dim {
		return fmt.Errorf("base segment dimension %d, delta segment dimension %d", i.dim, dim)
	}
	for _, e := range deltaEntries {
		// A delta entry shadows any base slot with the same ID.
		delete(i.baseLive, e.docID)
		i.delta[e.docID] = e
	}
	return nil
}

// writeSegment encodes entries as: dim(uint32), n(uint32), then per entry
// idLen(uint32), id, textLen(uint32), text, vec(float32[dim]). All values
// little-endian. The file is written to a temp path and renamed into place.
func writeSegment(path string, dim int, entries []entry) error {
	size := 8
	for _, e := range entries {
		size += 4 + len(e.docID) + 4 + len(e.text) + 4*dim
	}
	out := make([]byte, 0, size)

	putU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		out = append(out, b[:]...)
	}

	putU32(uint32(dim))
	putU32(uint32(len(entries)))
	for _, e := range entries {
		putU32(uint32(len(e.docID)))
		out = append(out, e.docID...)
		putU32(uint32(len(e.text)))
		out = append(out, e.text...)
		for j := 0; j < dim; j++ {
			putU32(math.Float32bits(e.vec[j]))
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readSegment decodes a segment file. A missing file yields no entries.
func readSegment(path string) (int, []entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil, nil
		}
		return 0, nil, err
	}
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("segment %s: truncated header", path)
	}

	off := 0
	getU32 := func() (uint32, error) {
		if off+4 > len(data) {
			return 0, fmt.Errorf("segment %s: truncated at offset %d", path, off)
		}
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v, nil
	}

	dimU, _ := getU32()
	nU, _ := getU32()
	dim, n := int(dimU), int(nU)

	entries := make([]entry, 0, n)
	for idx := 0; idx < n; idx++ {
		idLen, err := getU32()
		if err != nil {
			return 0, nil, err
		}
		if off+int(idLen) > len(data) {
			return 0, nil, fmt.Errorf("segment %s: truncated id", path)
		}
		docID := string(data[off : off+int(idLen)])
		off += int(idLen)

		textLen, err := getU32()
		if err != nil {
			return 0, nil, err
		}
		if off+int(textLen) > len(data) {
			return 0, nil, fmt.Errorf("segment %s: truncated text", path)
		}
		text := string(data[off : off+int(textLen)])
		off += int(textLen)

		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			bits, err := getU32()
			if err != nil {
				return 0, nil, err
			}
			vec[j] = math.Float32frombits(bits)
		}

		entries = append(entries, entry{
			docID: docID,
			vec:   vec,
			mag:   magnitude(vec),
			text:  text,
		})
	}
	return dim, entries, nil
}
