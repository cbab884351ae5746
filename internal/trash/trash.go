package trash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"photodup/internal/config"
	"photodup/internal/logging"
)

// Bin moves deleted photos into the trash directory, preserving their folder
// structure relative to the root. With permanent deletion enabled it unlinks
// instead and keeps no journal.
type Bin struct {
	root      string
	trashDir  string
	permanent bool
	journal   *Journal
	logger    *slog.Logger
}

// NewBin opens the trash directory and its journal for the configured root.
func NewBin(cfg *config.Config, logger *slog.Logger) (*Bin, error) {
	bin := &Bin{
		root:      cfg.Paths.Root,
		trashDir:  cfg.TrashDir(),
		permanent: cfg.Review.PermanentDelete,
		logger:    logging.WithComponent(logger, "trash"),
	}
	if bin.permanent {
		return bin, nil
	}

	if err := os.MkdirAll(bin.trashDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure trash dir: %w", err)
	}
	journal, err := OpenJournal(filepath.Join(bin.trashDir, "journal.db"))
	if err != nil {
		return nil, fmt.Errorf("open trash journal: %w", err)
	}
	bin.journal = journal
	return bin, nil
}

// Close closes the journal, if any.
func (b *Bin) Close() error {
	return b.journal.Close()
}

// Journal exposes the underlying journal for listing. It is nil when
// permanent deletion is enabled.
func (b *Bin) Journal() *Journal {
	return b.journal
}

// Remove trashes or unlinks the file at absPath. relPath is its slash-form
// path relative to the photo root and determines where in the trash mirror
// the file lands.
func (b *Bin) Remove(ctx context.Context, absPath, relPath string) error {
	if b.permanent {
		if err := os.Remove(absPath); err != nil {
			return fmt.Errorf("delete %s: %w", relPath, err)
		}
		b.logger.Info("file deleted permanently", logging.String("relpath", relPath))
		return nil
	}

	var sizeBytes int64
	if info, err := os.Stat(absPath); err == nil {
		sizeBytes = info.Size()
	}

	target := filepath.Join(b.trashDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("ensure trash subdir: %w", err)
	}
	target = nextFreePath(target)

	if err := moveFile(absPath, target); err != nil {
		return fmt.Errorf("trash %s: %w", relPath, err)
	}
	if _, err := b.journal.Append(ctx, relPath, target, sizeBytes); err != nil {
		// The move already happened; a journal failure only costs undo.
		b.logger.Warn("trash move not journaled",
			logging.String("relpath", relPath),
			logging.Error(err),
		)
	}
	b.logger.Info("file trashed",
		logging.String("relpath", relPath),
		logging.String("trash_path", target),
	)
	return nil
}

// RestoreLast undoes the most recent journaled trash move, putting the file
// back at its original path. It fails without side effects when the original
// path is occupied again.
func (b *Bin) RestoreLast(ctx context.Context) (*Entry, error) {
	if b.journal == nil {
		return nil, ErrNothingToRestore
	}
	entry, err := b.journal.LatestActive(ctx)
	if err != nil {
		return nil, err
	}

	original := filepath.Join(b.root, filepath.FromSlash(entry.RelPath))
	if _, err := os.Stat(original); err == nil {
		return nil, fmt.Errorf("restore %s: original path is occupied", entry.RelPath)
	}
	if err := os.MkdirAll(filepath.Dir(original), 0o755); err != nil {
		return nil, fmt.Errorf("ensure original dir: %w", err)
	}
	if err := moveFile(entry.TrashPath, original); err != nil {
		return nil, fmt.Errorf("restore %s: %w", entry.RelPath, err)
	}
	if err := b.journal.MarkRestored(ctx, entry.ID); err != nil {
		return nil, err
	}
	b.logger.Info("file restored", logging.String("relpath", entry.RelPath))
	return entry, nil
}

// nextFreePath returns path itself when unoccupied, otherwise the first
// "stem (N)ext" variant starting at N=2 that is.
func nextFreePath(path string) string {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// moveFile renames source to target, falling back to copy+delete for
// cross-device moves.
func moveFile(source, target string) error {
	renameErr := os.Rename(source, target)
	if renameErr == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if err := copyFile(source, target); err != nil {
			return err
		}
		return os.Remove(source)
	}
	return renameErr
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
