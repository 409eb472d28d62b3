package database

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Backups are named spothub_<UTC stamp>.db.zip, PurgeBackups reads the age
// from the name.
const (
	backupPrefix = "spothub_"
	backupSuffix = ".db.zip"
	backupStamp  = "20060102T150405Z"
)

func backupName(t time.Time) string {
	return backupPrefix + t.UTC().Format(backupStamp) + backupSuffix
}

// backupTime returns when the named backup was taken, false when the file is
// not one of ours.
func backupTime(name string) (time.Time, bool) {
	stamp, ok := strings.CutPrefix(name, backupPrefix)
	if !ok {
		return time.Time{}, false
	}
	stamp, ok = strings.CutSuffix(stamp, backupSuffix)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(backupStamp, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Backup copies the database with VACUUM INTO and stores it compressed in the
// backup directory. It returns the path of the archive.
func (d *Database) Backup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(d.backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	archive := filepath.Join(d.backupDir, backupName(time.Now()))
	snapshot := strings.TrimSuffix(archive, ".zip") + ".tmp"
	if _, err := d.write.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return "", fmt.Errorf("vacuum database into '%s': %w", snapshot, err)
	}
	defer func() {
		if err := os.Remove(snapshot); err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("could not remove uncompressed backup", slog.String("path", snapshot), slog.Any("error", err))
		}
	}()

	if err := compress(snapshot, archive, filepath.Base(d.path)); err != nil {
		_ = os.Remove(archive)
		return "", err
	}

	d.logger.Info("database backup complete", slog.String("path", archive))
	return archive, nil
}

// compress writes src into a new zip archive at dst as a single entry.
func compress(src, dst, entry string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open backup for compression: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat backup: %w", err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create zip header: %w", err)
	}
	header.Name = entry
	header.Method = zip.Deflate

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create zip entry: %w", err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("compress backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize backup archive: %w", err)
	}
	return out.Close()
}

// PurgeBackups deletes the backups taken more than retentionDays ago. Files
// in the backup directory that are not named like a backup are left alone.
func (d *Database) PurgeBackups(ctx context.Context, retentionDays int) error {
	if retentionDays < 1 {
		return nil
	}
	d.logger.Debug("purging backups", slog.String("dir", d.backupDir))
	before := time.Now().Add(-24 * time.Hour * time.Duration(retentionDays))

	entries, err := os.ReadDir(d.backupDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read backup directory: %w", err)
	}

	purged := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		taken, ok := backupTime(e.Name())
		if e.IsDir() || !ok || !taken.Before(before) {
			continue
		}
		path := filepath.Join(d.backupDir, e.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove backup '%s': %w", path, err)
		}
		purged++
	}

	d.logger.Debug(fmt.Sprintf("purged %d backups", purged))
	return nil
}
