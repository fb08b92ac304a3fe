// Copyright 2024 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package loader

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	bloomfilter "github.com/holiman/bloomfilter/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"golang.org/x/crypto/sha3"
)

// ModuleId addresses one compiled module in the store: the Keccak256 hash
// of its blob, the same content-addressing convention the teacher uses for
// block/tx hashes (crypto.Keccak256Hash), generalized to module content.
type ModuleId [32]byte

func (id ModuleId) String() string { return hex.EncodeToString(id[:]) }

// ParseModuleID parses a hex-encoded ModuleId, the inverse of String, for
// CLI flags and config files that name modules by their content hash.
func ParseModuleID(s string) (ModuleId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ModuleId{}, fmt.Errorf("module id %q: %w", s, err)
	}
	if len(b) != len(ModuleId{}) {
		return ModuleId{}, fmt.Errorf("module id %q: want %d bytes, got %d", s, len(ModuleId{}), len(b))
	}
	var id ModuleId
	copy(id[:], b)
	return id, nil
}

// HashModule derives blob's ModuleId.
func HashModule(blob []byte) ModuleId {
	var id ModuleId
	d := sha3.NewLegacyKeccak256()
	d.Write(blob)
	d.Sum(id[:0])
	return id
}

// ModuleStore is spec.md §6's persistent module store: ModuleId → bytes,
// supporting load/publish/exists.
type ModuleStore interface {
	Load(id ModuleId) ([]byte, error)
	Publish(id ModuleId, blob []byte) error
	Exists(id ModuleId) (bool, error)
}

// moduleCacheBytes bounds the in-memory fastcache fronting the LevelDB
// store; module blobs are small (a handful of functions each), so this
// comfortably holds the working set of a single proving session.
const moduleCacheBytes = 32 * 1024 * 1024

// bloomBits/bloomHashes size the existence-probe filter for roughly
// 100,000 modules at a sub-percent false-positive rate.
const (
	bloomBits   = 1 << 21
	bloomHashes = 4
)

// Store is a LevelDB-backed ModuleStore: an in-memory fastcache absorbs
// repeated resolves of hot modules, and a bloom filter short-circuits
// Exists checks for modules that were never published, avoiding a LevelDB
// read on the common "not found" path. Grounded on the teacher's
// probedb/leveldb wrapper (leveldb.Open/OpenFile) plus fastcache and
// bloomfilter/v2, both teacher deps otherwise unused by this core.
type Store struct {
	db    *leveldb.DB
	cache *fastcache.Cache
	bloom *bloomfilter.Filter
}

// Open opens (creating if absent) a persistent module store at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

// OpenMemory opens an in-memory module store, for tests and for a CLI run
// whose configured module store path is empty.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

func newStore(db *leveldb.DB) (*Store, error) {
	bloom, err := bloomfilter.New(bloomBits, bloomHashes)
	if err != nil {
		return nil, err
	}
	iter := db.NewIterator(nil, nil)
	for iter.Next() {
		bloom.Add(bloomKey(iter.Key()))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return &Store{
		db:    db,
		cache: fastcache.New(moduleCacheBytes),
		bloom: bloom,
	}, nil
}

// moduleHash adapts a ModuleId's leading 8 bytes (already a hash, so
// already uniformly distributed) into bloomfilter.Hashable, the same
// truncate-and-wrap convention the teacher's trie sync bloom uses for
// 32-byte hashes.
type moduleHash uint64

func (h moduleHash) Sum64() uint64 { return uint64(h) }

func bloomKey(id []byte) bloomfilter.Hashable {
	return moduleHash(binary.BigEndian.Uint64(id[:8]))
}

// Load returns id's blob, checking the in-memory cache before LevelDB.
func (s *Store) Load(id ModuleId) ([]byte, error) {
	if blob, ok := s.cache.HasGet(nil, id[:]); ok {
		return blob, nil
	}
	blob, err := s.db.Get(id[:], nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, fmt.Errorf("module %s not found", id)
		}
		return nil, err
	}
	s.cache.Set(id[:], blob)
	return blob, nil
}

// Publish stores blob under id, overwriting any prior blob at the same id.
func (s *Store) Publish(id ModuleId, blob []byte) error {
	if err := s.db.Put(id[:], blob, nil); err != nil {
		return err
	}
	s.cache.Set(id[:], blob)
	s.bloom.Add(bloomKey(id[:]))
	return nil
}

// Exists reports whether id has been published, consulting the bloom
// filter first to avoid a LevelDB lookup for modules never seen.
func (s *Store) Exists(id ModuleId) (bool, error) {
	if !s.bloom.Contains(bloomKey(id[:])) {
		return false, nil
	}
	_, err := s.db.Get(id[:], nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close releases the underlying LevelDB handle.
func (s *Store) Close() error { return s.db.Close() }
