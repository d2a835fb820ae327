package link

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when CachedTable format changes
const cacheSchemaVersion uint16 = 1

// Digest keys the disk cache. It covers the schema version, the module name,
// its priority, and the full IR text, so any input change misses.
type Digest [8]byte

// DigestOf computes the cache key for one extraction input.
func DigestOf(name string, priority Priority, text string) Digest {
	h := xxhash.New()
	nameLen, err := safecast.Conv[uint32](len(name))
	if err != nil {
		nameLen = ^uint32(0)
	}
	var schema [7]byte
	binary.LittleEndian.PutUint16(schema[0:2], cacheSchemaVersion)
	schema[2] = byte(priority)
	binary.LittleEndian.PutUint32(schema[3:7], nameLen)
	_, _ = h.Write(schema[:])
	_, _ = h.WriteString(name)
	_, _ = h.WriteString(text)
	var d Digest
	binary.LittleEndian.PutUint64(d[:], h.Sum64())
	return d
}

// CachedSymbol mirrors Symbol for serialization.
type CachedSymbol struct {
	Name         string
	Kind         uint8
	IsDefinition bool
	Linkage      string
	Text         string
}

// CachedTable stores one module's extraction result for fast re-links.
type CachedTable struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Module         string
	Priority       uint8
	Names          []string
	Symbols        []CachedSymbol
	TypeDefs       []string
	IntrinsicDecls []string
	Header         Header
}

// DiskCache stores extracted symbol tables keyed by input digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "symtabs", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a table to the disk cache.
func (c *DiskCache) Put(key Digest, table *SymbolTable) error {
	if c == nil || table == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(toCached(table)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace.
	return os.Rename(f.Name(), p)
}

// Get reads a cached table. Returns false on miss or schema mismatch.
func (c *DiskCache) Get(key Digest) (*SymbolTable, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var cached CachedTable
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&cached); err != nil {
		return nil, false, err
	}
	if cached.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return fromCached(&cached), true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

func toCached(t *SymbolTable) *CachedTable {
	cached := &CachedTable{
		Schema:         cacheSchemaVersion,
		Module:         t.Module,
		Priority:       uint8(t.Priority),
		Names:          t.Names,
		TypeDefs:       t.TypeDefs,
		IntrinsicDecls: t.IntrinsicDecls,
		Header:         t.Header,
	}
	cached.Symbols = make([]CachedSymbol, 0, len(t.Names))
	for _, name := range t.Names {
		sym := t.Symbols[name]
		cached.Symbols = append(cached.Symbols, CachedSymbol{
			Name:         sym.Name,
			Kind:         uint8(sym.Kind),
			IsDefinition: sym.IsDefinition,
			Linkage:      sym.Linkage,
			Text:         sym.Text,
		})
	}
	return cached
}

func fromCached(cached *CachedTable) *SymbolTable {
	t := &SymbolTable{
		Module:         cached.Module,
		Priority:       Priority(cached.Priority),
		Names:          cached.Names,
		Symbols:        make(map[string]*Symbol, len(cached.Symbols)),
		TypeDefs:       cached.TypeDefs,
		IntrinsicDecls: cached.IntrinsicDecls,
		Header:         cached.Header,
	}
	for _, cs := range cached.Symbols {
		t.Symbols[cs.Name] = &Symbol{
			Name:         cs.Name,
			Kind:         SymbolKind(cs.Kind),
			IsDefinition: cs.IsDefinition,
			Linkage:      cs.Linkage,
			Module:       cached.Module,
			Priority:     Priority(cached.Priority),
			Text:         cs.Text,
		}
	}
	return t
}
