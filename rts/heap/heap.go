// Package heap implements the runtime system's tagged object model over a
// 32-bit linear memory. Every allocation starts with a tag word identifying
// its kind followed by a length word; the two shapes allocated here are
// blobs (raw byte payload) and arrays (reference slots).
//
// References are skewed: a Ref holds the object's word-aligned address minus
// one, so a valid reference is never mistaken for an aligned raw address.
// The tracing collector that compacts this memory lives elsewhere; this
// package only hands out objects and reads them back.
package heap

import (
	"encoding/binary"
)

// WordSize is the size of one heap word in bytes.
const WordSize = 4

// Tag identifies the kind of a heap object. Tags are never matched
// exhaustively: a corrupted heap can present any value here, so readers
// check the one tag they expect and trap otherwise.
type Tag uint32

const (
	TagObject  Tag = 1
	TagObjInd  Tag = 2
	TagArray   Tag = 3
	TagBits64  Tag = 5
	TagMutBox  Tag = 6
	TagClosure Tag = 7
	TagSome    Tag = 8
	TagVariant Tag = 9
	TagBlob    Tag = 10
	TagFwdPtr  Tag = 11
	TagBits32  Tag = 12
	TagBigInt  Tag = 13
	TagConcat  Tag = 14
)

// MaxArrayLen is the largest legal array element count. An array's payload
// must not exceed a quarter of the 32-bit address space so that
// len*WordSize can never overflow the allocation arithmetic.
const MaxArrayLen = 1 << (32 - 2 - 1)

// MaxMemory is the largest addressable memory limit, one word short of
// the full 32-bit space.
const MaxMemory = ^uint32(0) &^ (WordSize - 1)

// headerWords is the size of the common object header: tag word plus
// length word.
const headerWords = 2

// Ref is a skewed reference to a heap object.
type Ref uint32

func skew(addr uint32) Ref   { return Ref(addr - 1) }
func (r Ref) unskew() uint32 { return uint32(r) + 1 }

// Memory is one program instance's linear heap. The address space up to
// the limit is reserved by allocation arithmetic but committed (backed by
// Go memory) only when first written, so a sparse heap costs what it
// touches. Instances never share a Memory, and within an instance
// allocation calls are serialized by the actor model, so there is no
// locking here.
type Memory struct {
	buf   []byte
	hp    uint32 // allocation pointer, word-aligned byte offset
	limit uint32 // reserved address space in bytes
}

// NewMemory creates a linear memory with the given byte limit, rounded
// down to a whole number of words. The word at offset 0 is kept
// unallocated so that no valid Ref is ever zero-adjacent.
func NewMemory(limit uint32) *Memory {
	limit &^= WordSize - 1
	return &Memory{hp: WordSize, limit: limit}
}

// allocWords reserves n contiguous words and returns the skewed reference
// to the first. Exhausting the memory is fatal: the mutator cannot make
// progress without the allocation, and the collector runs before this
// point, not after.
func (m *Memory) allocWords(n uint32) Ref {
	bytes := n * WordSize
	if bytes/WordSize != n || m.hp+bytes < m.hp || m.hp+bytes > m.limit {
		rtsTrap("out of memory")
	}
	addr := m.hp
	m.hp += bytes
	return skew(addr)
}

// AllocBlob allocates a blob with a payload of n bytes. The payload is
// uninitialized; the caller must fill it before anything observes it.
func (m *Memory) AllocBlob(n uint32) Ref {
	payloadWords := (n + WordSize - 1) / WordSize
	if n > 0 && payloadWords == 0 {
		rtsTrap("blob allocation too large")
	}
	r := m.allocWords(headerWords + payloadWords)
	m.setWord(r.unskew(), uint32(TagBlob))
	m.setWord(r.unskew()+WordSize, n)
	return r
}

// AllocArray allocates an array of n reference slots, all initialized to
// zero. Counts past MaxArrayLen trap rather than wrap: a truncated length
// word would corrupt every later access to the object.
func (m *Memory) AllocArray(n uint32) Ref {
	if n > MaxArrayLen {
		rtsTrap("Array allocation too large")
	}
	r := m.allocWords(headerWords + n)
	m.setWord(r.unskew(), uint32(TagArray))
	m.setWord(r.unskew()+WordSize, n)
	return r
}

// ---------------------------------------------------------------------------
// Object access
// ---------------------------------------------------------------------------

// Tag returns the tag word of the object at r.
func (m *Memory) Tag(r Ref) Tag {
	return Tag(m.word(r.unskew()))
}

// Len returns the length word of the object at r: byte count for blobs,
// element count for arrays.
func (m *Memory) Len(r Ref) uint32 {
	return m.word(r.unskew() + WordSize)
}

// BlobBytes returns the payload of the blob at r as a view into the heap.
// Traps if r does not reference a blob.
func (m *Memory) BlobBytes(r Ref) []byte {
	if m.Tag(r) != TagBlob {
		rtsTrap("expected blob")
	}
	start := r.unskew() + headerWords*WordSize
	n := m.Len(r)
	m.commit(start + n)
	return m.buf[start : start+n]
}

// ArrayGet returns element i of the array at r.
func (m *Memory) ArrayGet(r Ref, i uint32) Ref {
	m.checkArray(r, i)
	return Ref(m.word(r.unskew() + (headerWords+i)*WordSize))
}

// ArraySet stores v into element i of the array at r.
func (m *Memory) ArraySet(r Ref, i uint32, v Ref) {
	m.checkArray(r, i)
	m.setWord(r.unskew()+(headerWords+i)*WordSize, uint32(v))
}

func (m *Memory) checkArray(r Ref, i uint32) {
	if m.Tag(r) != TagArray {
		rtsTrap("expected array")
	}
	if i >= m.Len(r) {
		rtsTrap("array index out of bounds")
	}
}

// word reads the word at off. Reserved-but-uncommitted memory reads as
// zero, which is exactly the zero initialization the allocator promises.
func (m *Memory) word(off uint32) uint32 {
	if uint64(off)+WordSize > uint64(len(m.buf)) {
		return 0
	}
	return binary.LittleEndian.Uint32(m.buf[off : off+WordSize])
}

func (m *Memory) setWord(off uint32, v uint32) {
	m.commit(off + WordSize)
	binary.LittleEndian.PutUint32(m.buf[off:off+WordSize], v)
}

// commit backs the address space below end with real memory.
func (m *Memory) commit(end uint32) {
	if uint64(end) <= uint64(len(m.buf)) {
		return
	}
	grown := uint64(len(m.buf)) * 2
	if grown < uint64(end) {
		grown = uint64(end)
	}
	if grown > uint64(m.limit) {
		grown = uint64(m.limit)
	}
	next := make([]byte, grown)
	copy(next, m.buf)
	m.buf = next
}
