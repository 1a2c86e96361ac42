package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/google/uuid"
)

func TestFileLinkLifecycle(t *testing.T) {
	s, db := newTestStore(t)
	links := NewPublicLinkService(s, NewMemoryLinkStore(), NewMemoryLinkStore(), "http://localhost:8080")

	owner := seedUser(t, db, models.UserRoleUser)
	file := seedFile(t, db, owner.ID, nil)

	updated, link, err := links.EnableFileLink(context.Background(), file)
	if err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if !updated.IsPublic || updated.PublicToken == nil {
		t.Fatalf("expected persisted public state, got %+v", updated)
	}
	if len(*updated.PublicToken) != 32 {
		t.Fatalf("expected a 32-char hex token, got %q", *updated.PublicToken)
	}
	if !strings.HasPrefix(link, "http://localhost:8080/public/file/") {
		t.Fatalf("unexpected link: %q", link)
	}

	t.Run("resolve with the right token", func(t *testing.T) {
		resolved, err := links.ResolveFileLink(context.Background(), file.ID, *updated.PublicToken)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if resolved.ID != file.ID {
			t.Fatalf("resolved the wrong file: %s", resolved.ID)
		}
	})

	t.Run("resolve with a wrong token", func(t *testing.T) {
		if _, err := links.ResolveFileLink(context.Background(), file.ID, "0000000000000000000000000000000000"); !errors.Is(err, ErrLinkNotFound) {
			t.Fatalf("expected ErrLinkNotFound, got %v", err)
		}
	})

	t.Run("re-enable is idempotent", func(t *testing.T) {
		_, again, err := links.EnableFileLink(context.Background(), updated)
		if err != nil {
			t.Fatalf("re-enable failed: %v", err)
		}
		if again != link {
			t.Fatalf("expected the same link, got %q then %q", link, again)
		}
	})

	t.Run("disable revokes", func(t *testing.T) {
		disabled, err := links.DisableFileLink(context.Background(), file.ID)
		if err != nil {
			t.Fatalf("disable failed: %v", err)
		}
		if disabled.IsPublic || disabled.PublicToken != nil {
			t.Fatalf("expected public state cleared, got %+v", disabled)
		}
		if _, err := links.ResolveFileLink(context.Background(), file.ID, *updated.PublicToken); !errors.Is(err, ErrLinkNotFound) {
			t.Fatalf("expected ErrLinkNotFound after disable, got %v", err)
		}
	})

	t.Run("unknown file does not resolve", func(t *testing.T) {
		if _, err := links.ResolveFileLink(context.Background(), uuid.New(), "whatever"); !errors.Is(err, ErrLinkNotFound) {
			t.Fatalf("expected ErrLinkNotFound, got %v", err)
		}
	})
}

func TestRehydrateRestoresPersistedLinks(t *testing.T) {
	s, db := newTestStore(t)
	owner := seedUser(t, db, models.UserRoleUser)
	file := seedFile(t, db, owner.ID, nil)

	first := NewPublicLinkService(s, NewMemoryLinkStore(), NewMemoryLinkStore(), "http://localhost:8080")
	updated, _, err := first.EnableFileLink(context.Background(), file)
	if err != nil {
		t.Fatalf("enable failed: %v", err)
	}

	// A fresh service with empty caches stands in for a restarted server.
	second := NewPublicLinkService(s, NewMemoryLinkStore(), NewMemoryLinkStore(), "http://localhost:8080")
	if err := second.Rehydrate(context.Background()); err != nil {
		t.Fatalf("rehydrate failed: %v", err)
	}

	resolved, err := second.ResolveFileLink(context.Background(), file.ID, *updated.PublicToken)
	if err != nil {
		t.Fatalf("resolve after rehydrate failed: %v", err)
	}
	if resolved.ID != file.ID {
		t.Fatalf("resolved the wrong file: %s", resolved.ID)
	}
}

func TestFolderLinksAreInMemoryOnly(t *testing.T) {
	s, _ := newTestStore(t)
	links := NewPublicLinkService(s, NewMemoryLinkStore(), NewMemoryLinkStore(), "http://localhost:8080")

	folderID := uuid.New()
	link, err := links.EnableFolderLink(folderID)
	if err != nil {
		t.Fatalf("enable failed: %v", err)
	}

	token := link[strings.LastIndex(link, "/")+1:]
	if !links.ResolveFolderLink(folderID, token) {
		t.Fatal("expected folder link to resolve")
	}
	if links.ResolveFolderLink(folderID, "wrong") {
		t.Fatal("wrong token must not resolve")
	}

	again, err := links.EnableFolderLink(folderID)
	if err != nil || again != link {
		t.Fatalf("expected idempotent enable, got %q err=%v", again, err)
	}

	links.DisableFolderLink(folderID)
	if links.ResolveFolderLink(folderID, token) {
		t.Fatal("revoked link must not resolve")
	}
}
