package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
)

const (
	entryExt          = ".json"
	tempDirName       = ".tmp"
	defaultHotEntries = 128
)

// FSStore stores one file per key on a core.FS.
//
// Each file holds a SHA-256 checksum line followed by the JSON encoded entry.
// Writes go to a temporary file that is renamed over the target, so readers
// never see a partial entry. Decoded entries are kept in a bounded LRU that
// is updated on every write and delete.
type FSStore struct {
	fs      core.FS
	root    string
	tempDir string
	locks   keyedMutex
	hot     *lru.Cache[string, *Entry]
}

// FSStoreOption configures an FSStore.
type FSStoreOption func(*fsStoreConfig)

type fsStoreConfig struct {
	hotEntries int
}

// WithHotEntries sets how many decoded entries are kept in memory.
func WithHotEntries(n int) FSStoreOption {
	return func(c *fsStoreConfig) {
		c.hotEntries = n
	}
}

// fileHeader is the metadata part of a persisted entry.
type fileHeader struct {
	Key       string    `json:"key"`
	FetchedAt time.Time `json:"fetched_at"`
	TTLMs     int64     `json:"ttl_ms"`
	Count     int       `json:"count"`
}

// fileRecord is the persisted form of an Entry.
type fileRecord struct {
	fileHeader
	Payload json.RawMessage `json:"payload"`
}

// NewFSStore creates a store rooted at root on fsys, creating the directory
// if needed.
func NewFSStore(fsys core.FS, root string, opts ...FSStoreOption) (*FSStore, error) {
	if fsys == nil {
		return nil, errors.New(errors.CodeInvalidInput, "filesystem cannot be nil")
	}
	if root == "" {
		return nil, errors.New(errors.CodeInvalidInput, "root path cannot be empty")
	}

	cfg := fsStoreConfig{hotEntries: defaultHotEntries}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.hotEntries <= 0 {
		err := errors.New(errors.CodeInvalidInput, "hot entry count must be positive")
		return nil, errors.WithContext(err, "hot_entries", cfg.hotEntries)
	}

	tempDir := path.Join(root, tempDirName)
	if err := fsys.MkdirAll(tempDir, 0o755); err != nil {
		err := errors.Wrap(err, errors.CodeInternal, "failed to create cache directory")
		return nil, errors.WithContext(err, "root", root)
	}

	hot, err := lru.New[string, *Entry](cfg.hotEntries)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create entry cache")
	}

	return &FSStore{
		fs:      fsys,
		root:    root,
		tempDir: tempDir,
		hot:     hot,
	}, nil
}

func fileName(key string) string {
	return url.QueryEscape(key) + entryExt
}

func keyFromFileName(name string) (string, bool) {
	if !strings.HasSuffix(name, entryExt) {
		return "", false
	}
	key, err := url.QueryUnescape(strings.TrimSuffix(name, entryExt))
	if err != nil {
		return "", false
	}
	return key, true
}

func (s *FSStore) path(key string) string {
	return path.Join(s.root, fileName(key))
}

// Read returns the entry stored under key.
func (s *FSStore) Read(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	if e, ok := s.hot.Get(key); ok {
		return e, nil
	}

	// The fill must not race a Write or Delete of the same key, or the LRU
	// would resurrect a removed or superseded entry.
	unlock := s.locks.lock(key)
	defer unlock()

	if e, ok := s.hot.Get(key); ok {
		return e, nil
	}

	data, err := s.readFile(key)
	if err != nil {
		return nil, err
	}

	e, err := decodeFile(key, data)
	if err != nil {
		return nil, err
	}
	s.hot.Add(key, e)
	return e, nil
}

func (s *FSStore) readFile(key string) ([]byte, error) {
	data, err := s.fs.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, newCorruptError(key, err)
	}
	return data, nil
}

// Write stores entry atomically.
func (s *FSStore) Write(ctx context.Context, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry == nil {
		return errors.New(errors.CodeInvalidInput, "entry cannot be nil")
	}
	if err := validateKey(entry.Key); err != nil {
		return err
	}

	data, err := encodeFile(entry)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(entry.Key)
	defer unlock()

	tmp := path.Join(s.tempDir, uuid.NewString())
	if err := s.fs.WriteFile(tmp, data, 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		err := errors.Wrap(err, errors.CodeInternal, "failed to write temp file")
		return errors.WithContext(err, "key", entry.Key)
	}

	if err := s.fs.Rename(tmp, s.path(entry.Key)); err != nil {
		_ = s.fs.Remove(tmp)
		err := errors.Wrap(err, errors.CodeInternal, "failed to replace cache entry")
		return errors.WithContext(err, "key", entry.Key)
	}

	stored := *entry
	s.hot.Add(entry.Key, &stored)
	return nil
}

// Delete removes the given keys, or every entry when none are given.
func (s *FSStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(keys) == 0 {
		all, err := s.keys()
		if err != nil {
			return err
		}
		keys = all
		defer s.hot.Purge()
	}

	for _, key := range keys {
		if err := s.remove(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *FSStore) remove(key string) error {
	unlock := s.locks.lock(key)
	defer unlock()

	s.hot.Remove(key)
	if err := s.fs.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		err := errors.Wrap(err, errors.CodeInternal, "failed to remove cache entry")
		return errors.WithContext(err, "key", key)
	}
	return nil
}

// List returns the metadata of every readable entry. Corrupt entries are skipped.
func (s *FSStore) List(ctx context.Context) ([]Status, error) {
	keys, err := s.keys()
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		st, err := s.status(key)
		switch {
		case err == nil:
			statuses = append(statuses, st)
		case IsNotFound(err), IsCorrupt(err):
			continue
		default:
			return nil, err
		}
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Key < statuses[j].Key })
	return statuses, nil
}

// status returns the metadata of key. The payload is checksummed but not
// decoded, and the LRU is neither filled nor reordered.
func (s *FSStore) status(key string) (Status, error) {
	if e, ok := s.hot.Peek(key); ok {
		return statusOf(e), nil
	}

	data, err := s.readFile(key)
	if err != nil {
		return Status{}, err
	}
	body, err := verifyFile(key, data)
	if err != nil {
		return Status{}, err
	}

	var hdr fileHeader
	if err := json.Unmarshal(body, &hdr); err != nil {
		return Status{}, newCorruptError(key, err)
	}
	if hdr.Key != key {
		return Status{}, errors.WithContext(newCorruptError(key, nil), "stored_key", hdr.Key)
	}
	return statusOf(hdr.entry(nil)), nil
}

// Close drops the in-memory entries. The filesystem is owned by the caller.
func (s *FSStore) Close() error {
	s.hot.Purge()
	return nil
}

func (s *FSStore) keys() ([]string, error) {
	entries, err := s.fs.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		err := errors.Wrap(err, errors.CodeInternal, "failed to list cache directory")
		return nil, errors.WithContext(err, "root", s.root)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if key, ok := keyFromFileName(entry.Name()); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func encodeFile(e *Entry) ([]byte, error) {
	body, err := json.Marshal(fileRecord{
		fileHeader: fileHeader{
			Key:       e.Key,
			FetchedAt: e.FetchedAt,
			TTLMs:     e.TTL.Milliseconds(),
			Count:     e.Count,
		},
		Payload: e.Payload,
	})
	if err != nil {
		err := errors.Wrap(err, errors.CodeInternal, "failed to encode cache entry")
		return nil, errors.WithContext(err, "key", e.Key)
	}

	sum := sha256.Sum256(body)
	var buf bytes.Buffer
	buf.Grow(hex.EncodedLen(len(sum)) + 1 + len(body))
	buf.WriteString(hex.EncodeToString(sum[:]))
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes(), nil
}

// verifyFile splits the checksum line from the body and checks it.
func verifyFile(key string, data []byte) ([]byte, error) {
	checksum, body, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return nil, newCorruptError(key, nil)
	}

	sum := sha256.Sum256(body)
	if hex.EncodeToString(sum[:]) != string(checksum) {
		return nil, errors.WithContext(newCorruptError(key, nil), "reason", "checksum mismatch")
	}
	return body, nil
}

func decodeFile(key string, data []byte) (*Entry, error) {
	body, err := verifyFile(key, data)
	if err != nil {
		return nil, err
	}

	var rec fileRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, newCorruptError(key, err)
	}
	if rec.Key != key {
		return nil, errors.WithContext(newCorruptError(key, nil), "stored_key", rec.Key)
	}
	return rec.entry(rec.Payload), nil
}

func (h fileHeader) entry(payload json.RawMessage) *Entry {
	return &Entry{
		Key:       h.Key,
		Payload:   payload,
		Count:     h.Count,
		FetchedAt: h.FetchedAt,
		TTL:       time.Duration(h.TTLMs) * time.Millisecond,
	}
}
