package uploads

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Aashish788/clouddrive/internal/storage"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/google/uuid"
)

var (
	// ErrNotInitialized is returned when a chunk with index > 0 arrives
	// before chunk 0 opened the session, or after the session expired.
	ErrNotInitialized = errors.New("upload not properly initialized")

	// ErrAssembling rejects chunks that arrive while the final object is
	// being written, which closes the double-completion race.
	ErrAssembling = errors.New("upload is already being finalized")

	ErrInvalidChunk  = errors.New("invalid chunk metadata")
	ErrChunkTooLarge = errors.New("chunk exceeds the maximum chunk size")
	ErrFileTooLarge  = errors.New("upload exceeds the maximum file size")
)

// MissingChunkError reports a gap found during assembly. With the
// received-set guarding completion this only happens when chunk files
// were removed out from under the coordinator.
type MissingChunkError struct {
	Index int
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("missing chunk %d", e.Index)
}

// Chunk is one piece of an upload together with the metadata that
// identifies its session.
type Chunk struct {
	FileName    string
	MimeType    string
	Index       int
	TotalChunks int
	Data        []byte
	UserID      uuid.UUID
	GroupID     *uuid.UUID
	ParentID    *uuid.UUID
}

// Result acknowledges a chunk. When Completed is set the assembled
// object has been stored and the caller should create the file record.
type Result struct {
	Completed      bool
	ChunkIndex     int
	ReceivedChunks int
	TotalChunks    int

	// Populated only when Completed.
	ObjectName string
	FileName   string
	MimeType   string
	Size       int64
	UserID     uuid.UUID
	GroupID    *uuid.UUID
	ParentID   *uuid.UUID
}

// Coordinator reassembles chunked uploads. Chunks land as individual
// temp files; when every index has arrived they are concatenated in
// order and streamed to the object store. All mutation of one session
// happens under that session's own mutex, so concurrent chunks for the
// same file serialize while different uploads proceed in parallel.
type Coordinator struct {
	sessions SessionStore
	objects  storage.ObjectStore
	tempDir  string

	ttl          time.Duration
	maxChunkSize int64
	maxFileSize  int64

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock is a per-session mutex with a waiter count. The count keeps
// the map entry alive while any request holds or waits on the mutex, so
// every chunk for one key always contends on the same mutex.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

type Options struct {
	TempDir      string
	TTL          time.Duration
	MaxChunkSize int64
	MaxFileSize  int64
}

func NewCoordinator(sessions SessionStore, objects storage.ObjectStore, opts Options) (*Coordinator, error) {
	if err := os.MkdirAll(opts.TempDir, 0o755); err != nil {
		return nil, err
	}
	return &Coordinator{
		sessions:     sessions,
		objects:      objects,
		tempDir:      opts.TempDir,
		ttl:          opts.TTL,
		maxChunkSize: opts.MaxChunkSize,
		maxFileSize:  opts.MaxFileSize,
		locks:        make(map[string]*keyLock),
	}, nil
}

// HandleChunk ingests one chunk. Chunk 0 opens (or reopens) the session;
// the chunk that fills the received set triggers assembly before the
// call returns.
func (c *Coordinator) HandleChunk(ctx context.Context, chunk Chunk) (*Result, error) {
	if chunk.FileName == "" || chunk.TotalChunks < 1 || chunk.Index < 0 || chunk.Index >= chunk.TotalChunks {
		return nil, ErrInvalidChunk
	}
	if c.maxChunkSize > 0 && int64(len(chunk.Data)) > c.maxChunkSize {
		return nil, ErrChunkTooLarge
	}

	key := SessionKey(chunk.UserID, chunk.GroupID, chunk.FileName)
	unlock := c.lockKey(key)
	defer unlock()

	session, err := c.sessions.Get(key)
	if err != nil {
		return nil, err
	}

	if session != nil && session.Assembling {
		return nil, ErrAssembling
	}

	now := time.Now()
	if chunk.Index == 0 {
		// Chunk 0 always starts fresh, discarding any stale session for
		// the same destination.
		if session != nil {
			c.removeChunkFiles(key, session.TotalChunks)
		}
		session = &Session{
			Key:            key,
			FileName:       chunk.FileName,
			MimeType:       chunk.MimeType,
			TotalChunks:    chunk.TotalChunks,
			ReceivedChunks: make(map[int]bool, chunk.TotalChunks),
			UserID:         chunk.UserID,
			GroupID:        chunk.GroupID,
			ParentID:       chunk.ParentID,
			CreatedAt:      now,
		}
	} else if session == nil {
		return nil, ErrNotInitialized
	}

	if chunk.TotalChunks != session.TotalChunks {
		return nil, ErrInvalidChunk
	}

	if err := c.writeChunkFile(key, chunk.Index, chunk.Data); err != nil {
		return nil, err
	}

	// Duplicates overwrite the chunk file but must not inflate the size
	// accumulator.
	if !session.ReceivedChunks[chunk.Index] {
		session.ReceivedChunks[chunk.Index] = true
		session.Size += int64(len(chunk.Data))
	}
	session.UpdatedAt = now

	if c.maxFileSize > 0 && session.Size > c.maxFileSize {
		c.removeChunkFiles(key, session.TotalChunks)
		if err := c.sessions.Delete(key); err != nil {
			logger.Error("upload_session_delete_failed", err, map[string]interface{}{"key": key})
		}
		return nil, ErrFileTooLarge
	}

	if len(session.ReceivedChunks) < session.TotalChunks {
		if err := c.sessions.Put(session); err != nil {
			return nil, err
		}
		return &Result{
			ChunkIndex:     chunk.Index,
			ReceivedChunks: len(session.ReceivedChunks),
			TotalChunks:    session.TotalChunks,
		}, nil
	}

	// All chunks are in. Mark the session before assembling so a
	// concurrent duplicate of the final chunk cannot start a second
	// assembly once the lock is released on error paths.
	session.Assembling = true
	if err := c.sessions.Put(session); err != nil {
		return nil, err
	}

	objectName, err := c.assemble(ctx, session)
	if err != nil {
		session.Assembling = false
		if putErr := c.sessions.Put(session); putErr != nil {
			logger.Error("upload_session_put_failed", putErr, map[string]interface{}{"key": key})
		}
		return nil, err
	}

	if err := c.sessions.Delete(key); err != nil {
		logger.Error("upload_session_delete_failed", err, map[string]interface{}{"key": key})
	}

	logger.InfoWithUser(session.UserID.String(), "upload_completed", map[string]interface{}{
		"file_name":    session.FileName,
		"total_chunks": session.TotalChunks,
		"size":         session.Size,
	})

	return &Result{
		Completed:      true,
		ChunkIndex:     chunk.Index,
		ReceivedChunks: session.TotalChunks,
		TotalChunks:    session.TotalChunks,
		ObjectName:     objectName,
		FileName:       session.FileName,
		MimeType:       session.MimeType,
		Size:           session.Size,
		UserID:         session.UserID,
		GroupID:        session.GroupID,
		ParentID:       session.ParentID,
	}, nil
}

// assemble concatenates chunks 0..N-1 in index order into the object
// store, deleting each chunk file once it has been consumed.
func (c *Coordinator) assemble(ctx context.Context, session *Session) (string, error) {
	assembled, err := os.CreateTemp(c.tempDir, ".assemble-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(assembled.Name())
	defer assembled.Close()

	for i := 0; i < session.TotalChunks; i++ {
		path := c.chunkPath(session.Key, i)
		chunkFile, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", &MissingChunkError{Index: i}
			}
			return "", err
		}
		_, err = io.Copy(assembled, chunkFile)
		chunkFile.Close()
		if err != nil {
			return "", err
		}
		os.Remove(path)
	}

	if _, err := assembled.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("files/%s/%s", session.UserID, uuid.New())
	if err := c.objects.Upload(ctx, objectName, assembled, session.Size, session.MimeType); err != nil {
		return "", err
	}
	return objectName, nil
}

// Sweep expires sessions idle longer than the TTL, removing their chunk
// files and stored state.
func (c *Coordinator) Sweep(ctx context.Context) {
	keys, err := c.sessions.Keys()
	if err != nil {
		logger.Error("upload_sweep_failed", err, nil)
		return
	}

	cutoff := time.Now().Add(-c.ttl)
	for _, key := range keys {
		select {
		case <-ctx.Done():
			return
		default:
		}

		unlock := c.lockKey(key)
		session, err := c.sessions.Get(key)
		if err != nil || session == nil || session.Assembling || session.UpdatedAt.After(cutoff) {
			unlock()
			continue
		}

		c.removeChunkFiles(key, session.TotalChunks)
		if err := c.sessions.Delete(key); err != nil {
			logger.Error("upload_session_delete_failed", err, map[string]interface{}{"key": key})
		}
		unlock()

		logger.Info("upload_session_expired", map[string]interface{}{
			"key":       key,
			"file_name": session.FileName,
		})
	}
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (c *Coordinator) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep(ctx)
			}
		}
	}()
}

// lockKey acquires the per-session mutex for key. The returned func
// releases it and discards the map entry once nobody holds or waits on
// it, so finished uploads do not leak lock state.
func (c *Coordinator) lockKey(key string) func() {
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

// chunkPath derives the on-disk name for one chunk. The key embeds a
// client-supplied file name, so it is hashed rather than used directly.
func (c *Coordinator) chunkPath(key string, index int) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.tempDir, fmt.Sprintf("%x.part%d", sum, index))
}

func (c *Coordinator) writeChunkFile(key string, index int, data []byte) error {
	return os.WriteFile(c.chunkPath(key, index), data, 0o644)
}

func (c *Coordinator) removeChunkFiles(key string, totalChunks int) {
	for i := 0; i < totalChunks; i++ {
		os.Remove(c.chunkPath(key, i))
	}
}
