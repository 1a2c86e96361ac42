package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/google/uuid"
)

// ErrLinkNotFound covers every public-link failure: unknown resource,
// disabled link, or wrong token. Callers must not distinguish them, so
// an attacker probing IDs learns nothing.
var ErrLinkNotFound = errors.New("public link not found")

// LinkStore maps a resource ID to its share token. Injected so the
// service never owns process-global state; the caller decides lifetime.
type LinkStore interface {
	Get(id uuid.UUID) (string, bool)
	Set(id uuid.UUID, token string)
	Delete(id uuid.UUID)
}

// MemoryLinkStore is a mutex-guarded map implementation of LinkStore.
type MemoryLinkStore struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]string
}

func NewMemoryLinkStore() *MemoryLinkStore {
	return &MemoryLinkStore{tokens: make(map[uuid.UUID]string)}
}

func (m *MemoryLinkStore) Get(id uuid.UUID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[id]
	return token, ok
}

func (m *MemoryLinkStore) Set(id uuid.UUID, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[id] = token
}

func (m *MemoryLinkStore) Delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
}

// PublicLinkService issues and resolves unauthenticated share links.
// File tokens are persisted on the file row so links survive restarts;
// the injected caches keep resolution off the hot DB path and hold
// folder tokens, which are session-scoped.
type PublicLinkService struct {
	store   *store.Store
	files   LinkStore
	folders LinkStore
	baseURL string
}

func NewPublicLinkService(s *store.Store, files, folders LinkStore, baseURL string) *PublicLinkService {
	return &PublicLinkService{
		store:   s,
		files:   files,
		folders: folders,
		baseURL: baseURL,
	}
}

// Rehydrate reloads persisted file tokens into the cache after a
// restart, so previously issued links keep working.
func (p *PublicLinkService) Rehydrate(ctx context.Context) error {
	files, err := p.store.ListPublicFiles(ctx)
	if err != nil {
		return err
	}
	for i := range files {
		if files[i].PublicToken != nil {
			p.files.Set(files[i].ID, *files[i].PublicToken)
		}
	}
	return nil
}

// EnableFileLink makes a file publicly reachable and returns the share
// URL. Re-enabling an already public file reuses the existing token, so
// previously handed-out links stay valid.
func (p *PublicLinkService) EnableFileLink(ctx context.Context, file *models.File) (*models.File, string, error) {
	if file.IsPublic && file.PublicToken != nil {
		p.files.Set(file.ID, *file.PublicToken)
		return file, p.FileURL(file.ID, *file.PublicToken), nil
	}

	token, err := newLinkToken()
	if err != nil {
		return nil, "", err
	}

	updated, err := p.store.SetFilePublicAccess(ctx, file.ID, true, &token)
	if err != nil {
		return nil, "", err
	}

	p.files.Set(file.ID, token)
	return updated, p.FileURL(file.ID, token), nil
}

// DisableFileLink revokes public access. The token is discarded, so a
// later re-enable issues a fresh link.
func (p *PublicLinkService) DisableFileLink(ctx context.Context, fileID uuid.UUID) (*models.File, error) {
	updated, err := p.store.SetFilePublicAccess(ctx, fileID, false, nil)
	if err != nil {
		return nil, err
	}
	p.files.Delete(fileID)
	return updated, nil
}

// ResolveFileLink validates an unauthenticated link against the
// persisted record. The DB row is authoritative; the cache only serves
// the fast path.
func (p *PublicLinkService) ResolveFileLink(ctx context.Context, fileID uuid.UUID, token string) (*models.File, error) {
	if cached, ok := p.files.Get(fileID); ok {
		if !tokensEqual(cached, token) {
			return nil, ErrLinkNotFound
		}
	}

	file, err := p.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, ErrLinkNotFound
	}
	if !file.IsPublic || file.PublicToken == nil || !tokensEqual(*file.PublicToken, token) {
		return nil, ErrLinkNotFound
	}
	return file, nil
}

// EnableFolderLink issues a share token for a folder. Folder tokens live
// only in the link store.
func (p *PublicLinkService) EnableFolderLink(folderID uuid.UUID) (string, error) {
	if token, ok := p.folders.Get(folderID); ok {
		return p.FolderURL(folderID, token), nil
	}

	token, err := newLinkToken()
	if err != nil {
		return "", err
	}
	p.folders.Set(folderID, token)
	return p.FolderURL(folderID, token), nil
}

func (p *PublicLinkService) DisableFolderLink(folderID uuid.UUID) {
	p.folders.Delete(folderID)
}

// ResolveFolderLink reports whether the token grants access to the folder.
func (p *PublicLinkService) ResolveFolderLink(folderID uuid.UUID, token string) bool {
	expected, ok := p.folders.Get(folderID)
	return ok && tokensEqual(expected, token)
}

func (p *PublicLinkService) FileURL(id uuid.UUID, token string) string {
	return fmt.Sprintf("%s/public/file/%s/%s", p.baseURL, id, token)
}

func (p *PublicLinkService) FolderURL(id uuid.UUID, token string) string {
	return fmt.Sprintf("%s/public/folder/%s/%s", p.baseURL, id, token)
}

// newLinkToken returns 128 bits of randomness, hex encoded. Unguessable
// but short enough to paste into chat.
func newLinkToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
