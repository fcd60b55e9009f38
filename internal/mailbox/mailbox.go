// Package mailbox is a drop-directory email source: an external fetcher
// (IMAP script, mail API hook) writes raw RFC 822 messages into a directory,
// and the sync job drains it. Retrieval itself stays outside the core.
package mailbox

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
)

const processedDir = "processed"

// DirSource reads raw email files from a directory. FetchNew itself is
// read-only; files are moved to a processed/ subdirectory only once the
// caller acknowledges the batch via MarkProcessed, so a crash between drain
// and ingestion loses nothing. Re-reading a file is harmless: the ledger
// dedupes on the natural key.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// FetchNew parses every .eml file in the directory into a RawEmail. Files
// that do not parse as mail are moved aside immediately, with a warning, so
// they do not warn again on every drain; one bad file never blocks the rest.
func (s *DirSource) FetchNew(ctx context.Context) ([]domain.RawEmail, error) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading mailbox dir: %w", err)
	}

	var emails []domain.RawEmail
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".eml") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		email, err := readEmail(path, entry.Name())
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unparseable email file")
			if err := s.moveProcessed(entry.Name()); err != nil {
				log.Warn().Err(err).Str("file", entry.Name()).Msg("Could not move unparseable file aside")
			}
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// MarkProcessed moves acknowledged files into processed/ after the batch has
// been ingested. A file that cannot be moved stays in place and is re-read on
// the next drain; the warning is the only trace.
func (s *DirSource) MarkProcessed(ctx context.Context, sourceIDs []string) error {
	log := logger.FromContext(ctx)
	for _, id := range sourceIDs {
		if err := s.moveProcessed(filepath.Base(id)); err != nil {
			log.Warn().Err(err).Str("file", id).Msg("Could not move processed email")
		}
	}
	return nil
}

// ReadFile parses a single raw email file without moving it. Used by the
// one-shot CLI; the drop directory stays untouched.
func ReadFile(path string) (domain.RawEmail, error) {
	return readEmail(path, filepath.Base(path))
}

func readEmail(path, name string) (domain.RawEmail, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RawEmail{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return domain.RawEmail{}, fmt.Errorf("parse %s: %w", name, err)
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return domain.RawEmail{}, fmt.Errorf("read body %s: %w", name, err)
	}

	sender := msg.Header.Get("From")
	if addr, err := mail.ParseAddress(sender); err == nil {
		sender = addr.Address
	}

	receivedAt := time.Now()
	if date, err := msg.Header.Date(); err == nil {
		receivedAt = date
	}

	return domain.RawEmail{
		SourceID:   name,
		Sender:     sender,
		Subject:    msg.Header.Get("Subject"),
		Body:       string(body),
		ReceivedAt: receivedAt,
	}, nil
}

func (s *DirSource) moveProcessed(name string) error {
	dst := filepath.Join(s.dir, processedDir)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	if err := os.Rename(filepath.Join(s.dir, name), filepath.Join(dst, name)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", name, err)
	}
	return nil
}
