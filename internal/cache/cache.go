// Package cache implements the compiled-module cache (spec.md §4.8/§5): a
// content-addressed store keyed by a BLAKE2b-256 hash of the source text
// plus compiler options, holding the emitted JS, its source map, and the
// helper/import-graph metadata needed to skip recompilation. Grounded on
// the teacher's core/planfmt writer/reader/canonical trio — same
// "canonicalize with deterministic CBOR, hash the canonical bytes" shape
// (core/planfmt/canonical.go), same magic-prefixed binary-record framing
// (core/planfmt/writer.go), retargeted from an execution plan to a
// compiled-module record.
package cache

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Magic identifies a cache record file, mirroring core/planfmt.Magic's
// role as a format sentinel.
const Magic = "HQLC"

// Version is the cache record format version.
const Version uint16 = 1

// Record is one compiled module's cache entry.
type Record struct {
	Source      string   // originating .hql path, for diagnostics only
	Code        string   // emitted JS text (prelude/wrapping already applied)
	SourceMap   string   // Version-3 source map JSON
	Helpers     []string // runtime helper names referenced, sorted
	ImportGraph []string // resolved absolute paths of statically-linked modules, sorted
}

// MarshalCanonical produces deterministic CBOR encoding of rec, the same
// way core/planfmt.CanonicalPlan.MarshalBinary uses
// cbor.CanonicalEncOptions() to guarantee byte-for-byte stability across
// runs (required since the encoding also feeds the content hash below).
func (rec *Record) MarshalCanonical() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cache: create CBOR encoder: %w", err)
	}
	type recordAlias Record
	data, err := encMode.Marshal((*recordAlias)(rec))
	if err != nil {
		return nil, fmt.Errorf("cache: CBOR encoding failed: %w", err)
	}
	return data, nil
}

// Key computes the content-addressed cache key for a (source, options)
// pair: BLAKE2b-256 of the canonical source text concatenated with a
// caller-supplied options fingerprint (e.g. strict mode, target path).
// This is the cache's lookup key, independent of Digest (the written
// record's own integrity hash).
func Key(source string, optionsFingerprint string) ([32]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, err
	}
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(optionsFingerprint))
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key, nil
}

// Digest returns the BLAKE2b-256 hash of rec's canonical encoding, the
// record's own integrity check (independent from the lookup Key).
func Digest(rec *Record) ([32]byte, error) {
	data, err := rec.MarshalCanonical()
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}

// Path returns the on-disk path for a cache key under dir, spec.md §5's
// "per-runtime cache directory".
func Path(dir string, key [32]byte) string {
	hexKey := fmt.Sprintf("%x", key)
	return filepath.Join(dir, hexKey[:2], hexKey[2:]+".hqlc")
}

// Write encodes rec and atomically installs it at Path(dir, key): written
// to a temp file in the same directory then renamed, so a concurrent
// reader never observes a partial file (spec.md §5's "atomic
// temp-file-plus-rename" cache-write policy).
func Write(dir string, key [32]byte, rec *Record) error {
	path := Path(dir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache: create cache dir: %w", err)
	}

	body, err := rec.MarshalCanonical()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	if err := writeUint16(&buf, Version); err != nil {
		return err
	}
	if err := writeUint64(&buf, uint64(len(body))); err != nil {
		return err
	}
	buf.Write(body)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".hqlc-tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cache: rename into place: %w", err)
	}
	return nil
}

// Read loads the cache record at Path(dir, key), or (nil, false, nil) on
// a cache miss (file not found).
func Read(dir string, key [32]byte) (*Record, bool, error) {
	path := Path(dir, key)
	rec, err := ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rec, true, nil
}

// ReadFile decodes the cache record at an arbitrary path, independent of
// Path's dir/key layout convention — the shape `hql cache inspect` needs
// when a caller already has a concrete .hqlc file in hand.
func ReadFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("cache: read magic: %w", err)
	}
	if string(magic[:]) != Magic {
		return nil, fmt.Errorf("cache: bad magic %q in %s", magic, path)
	}
	version, err := readUint16(f)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("cache: unsupported version %d in %s", version, path)
	}
	bodyLen, err := readUint64(f)
	if err != nil {
		return nil, err
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(f, body); err != nil {
		return nil, fmt.Errorf("cache: read body: %w", err)
	}

	var rec Record
	if err := cbor.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("cache: decode record: %w", err)
	}
	return &rec, nil
}
