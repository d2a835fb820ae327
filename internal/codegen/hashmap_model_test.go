package codegen

import (
	"testing"

	"tern/internal/layout"
)

// mapModel mirrors the emitted open-addressing algorithm step for step:
// same tags, same probe sequence, same tombstone-first placement, same load
// factor and growth. The emitter tests use it as the behavioral oracle for
// the IR they cannot execute.
type mapModel struct {
	keys       []int64
	vals       []string
	tags       []uint8
	size       int64
	capacity   int64
	tombstones int64
}

// splitmix64 is the finalizer emitted as @tern.hash.i64.
func splitmix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

func newMapModel() *mapModel {
	m := &mapModel{capacity: layout.MapMinCapacity}
	m.keys = make([]int64, m.capacity)
	m.vals = make([]string, m.capacity)
	m.tags = make([]uint8, m.capacity)
	return m
}

func (m *mapModel) probeStart(key int64) int64 {
	return int64(splitmix64(uint64(key)) & uint64(m.capacity-1))
}

func (m *mapModel) get(key int64) (string, bool) {
	i := m.probeStart(key)
	mask := m.capacity - 1
	for n := int64(0); n < m.capacity; n++ {
		switch m.tags[i] {
		case tagEmpty:
			return "", false
		case tagOccupied:
			if m.keys[i] == key {
				return m.vals[i], true
			}
		}
		i = (i + 1) & mask
	}
	return "", false
}

func (m *mapModel) contains(key int64) bool {
	_, ok := m.get(key)
	return ok
}

func (m *mapModel) insert(key int64, val string) {
	i := m.probeStart(key)
	mask := m.capacity - 1
	firstTomb := int64(-1)
	target := int64(-1)
	for n := int64(0); n < m.capacity; n++ {
		switch m.tags[i] {
		case tagEmpty:
			target = i
		case tagOccupied:
			if m.keys[i] == key {
				m.vals[i] = val
				return
			}
		case tagTombstone:
			if firstTomb == -1 {
				firstTomb = i
			}
		}
		if target != -1 {
			break
		}
		i = (i + 1) & mask
	}
	if firstTomb != -1 {
		target = firstTomb
	}
	if target == -1 {
		m.rehash(m.capacity * layout.MapGrowthFactor)
		m.insert(key, val)
		return
	}
	wasTomb := m.tags[target] == tagTombstone
	m.keys[target] = key
	m.vals[target] = val
	m.tags[target] = tagOccupied
	m.size++
	if wasTomb {
		m.tombstones--
	}
	if m.size*layout.MapLoadDen > m.capacity*layout.MapLoadNum {
		m.rehash(m.capacity * layout.MapGrowthFactor)
	}
}

func (m *mapModel) remove(key int64) (string, bool) {
	i := m.probeStart(key)
	mask := m.capacity - 1
	for n := int64(0); n < m.capacity; n++ {
		switch m.tags[i] {
		case tagEmpty:
			return "", false
		case tagOccupied:
			if m.keys[i] == key {
				v := m.vals[i]
				m.tags[i] = tagTombstone
				m.size--
				m.tombstones++
				return v, true
			}
		}
		i = (i + 1) & mask
	}
	return "", false
}

func (m *mapModel) rehash(newcap int64) {
	oldKeys, oldVals, oldTags := m.keys, m.vals, m.tags
	m.keys = make([]int64, newcap)
	m.vals = make([]string, newcap)
	m.tags = make([]uint8, newcap)
	m.capacity = newcap
	m.size = 0
	m.tombstones = 0
	for i := range oldTags {
		if oldTags[i] == tagOccupied {
			m.insert(oldKeys[i], oldVals[i])
		}
	}
}

func (m *mapModel) collectKeys() []int64 {
	var out []int64
	for i := range m.tags {
		if m.tags[i] == tagOccupied {
			out = append(out, m.keys[i])
		}
	}
	return out
}

func TestMapModel_RoundTrip(t *testing.T) {
	m := newMapModel()
	const n = 200 // forces several growth cycles past the initial 16

	for i := int64(0); i < n; i++ {
		m.insert(i*7919, string(rune('a'+i%26)))
	}
	if m.size != n {
		t.Fatalf("size = %d, want %d", m.size, n)
	}
	if m.capacity&(m.capacity-1) != 0 {
		t.Fatalf("capacity %d is not a power of two", m.capacity)
	}
	if m.size*layout.MapLoadDen > m.capacity*layout.MapLoadNum {
		t.Fatalf("load factor exceeded after growth: %d/%d", m.size, m.capacity)
	}
	for i := int64(0); i < n; i++ {
		v, ok := m.get(i * 7919)
		if !ok {
			t.Fatalf("get(%d) missed", i*7919)
		}
		if want := string(rune('a' + i%26)); v != want {
			t.Fatalf("get(%d) = %q, want %q", i*7919, v, want)
		}
	}
	if m.contains(-1) {
		t.Error("contains reported a key never inserted")
	}
}

func TestMapModel_OverwriteKeepsSize(t *testing.T) {
	m := newMapModel()
	m.insert(42, "first")
	m.insert(42, "second")
	if m.size != 1 {
		t.Fatalf("size = %d after overwrite, want 1", m.size)
	}
	if v, _ := m.get(42); v != "second" {
		t.Errorf("get = %q, want %q", v, "second")
	}
}

func TestMapModel_RemoveLeavesTombstone(t *testing.T) {
	m := newMapModel()
	m.insert(1, "one")
	m.insert(2, "two")

	v, ok := m.remove(1)
	if !ok || v != "one" {
		t.Fatalf("remove(1) = %q, %v", v, ok)
	}
	if m.tombstones != 1 {
		t.Errorf("tombstones = %d, want 1", m.tombstones)
	}
	if _, ok := m.get(1); ok {
		t.Error("removed key still found")
	}
	// Keys probing through the tombstone stay reachable.
	if _, ok := m.get(2); !ok {
		t.Error("unrelated key lost after remove")
	}

	if _, ok := m.remove(1); ok {
		t.Error("second remove of the same key succeeded")
	}
}

// Keys whose probe sequences collide must survive removal of an earlier
// entry in the chain: the tombstone keeps later entries reachable.
func TestMapModel_CollisionChainSurvivesRemoval(t *testing.T) {
	m := newMapModel()
	// Find three keys sharing a probe start at the initial capacity.
	base := m.probeStart(0)
	var chain []int64
	for k := int64(0); len(chain) < 3 && k < 100000; k++ {
		if m.probeStart(k) == base {
			chain = append(chain, k)
		}
	}
	if len(chain) < 3 {
		t.Skip("no probe collisions found at this capacity")
	}
	for _, k := range chain {
		m.insert(k, "v")
	}
	m.remove(chain[0])
	for _, k := range chain[1:] {
		if !m.contains(k) {
			t.Errorf("key %d unreachable after removing chain head", k)
		}
	}
}

func TestMapModel_ReinsertReusesTombstone(t *testing.T) {
	m := newMapModel()
	m.insert(7, "seven")
	m.remove(7)
	if m.tombstones != 1 {
		t.Fatalf("tombstones = %d, want 1", m.tombstones)
	}
	m.insert(7, "again")
	if m.tombstones != 0 {
		t.Errorf("tombstones = %d after reinsert, want 0", m.tombstones)
	}
	if m.size != 1 {
		t.Errorf("size = %d, want 1", m.size)
	}
}

func TestMapModel_RehashClearsTombstones(t *testing.T) {
	m := newMapModel()
	for i := int64(0); i < 10; i++ {
		m.insert(i, "v")
	}
	for i := int64(0); i < 10; i++ {
		m.remove(i)
	}
	if m.tombstones != 10 {
		t.Fatalf("tombstones = %d, want 10", m.tombstones)
	}
	m.rehash(m.capacity * layout.MapGrowthFactor)
	if m.tombstones != 0 {
		t.Errorf("tombstones = %d after rehash, want 0", m.tombstones)
	}
	if m.size != 0 {
		t.Errorf("size = %d after rehash of empty map, want 0", m.size)
	}
}

func TestMapModel_CollectMatchesSize(t *testing.T) {
	m := newMapModel()
	for i := int64(0); i < 50; i++ {
		m.insert(i, "v")
	}
	for i := int64(0); i < 50; i += 2 {
		m.remove(i)
	}
	keys := m.collectKeys()
	if int64(len(keys)) != m.size {
		t.Fatalf("collected %d keys, size is %d", len(keys), m.size)
	}
	for _, k := range keys {
		if k%2 == 0 {
			t.Errorf("removed key %d appeared in collection", k)
		}
	}
}
