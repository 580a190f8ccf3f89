package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

type DoctorReport struct {
	OrphanDays       int `json:"orphan_days"`
	InvalidBounds    int `json:"invalid_bounds"`
	InvertedBounds   int `json:"inverted_bounds"`
	EmptyDays        int `json:"empty_days"`
	FixedBoundsRows  int `json:"fixed_bounds_rows,omitempty"`
	RemovedEmptyDays int `json:"removed_empty_days,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return r.OrphanDays == 0 && r.InvalidBounds == 0 && r.InvertedBounds == 0 && r.EmptyDays == 0
}

// CreateBackup writes a consistent copy of the open database with VACUUM INTO,
// which also folds in pages still sitting in the WAL file.
func CreateBackup(db *sql.DB, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if _, err := os.Stat(outPath); err == nil {
		return BackupInfo{}, fmt.Errorf("backup %s already exists", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := db.Exec(`VACUUM INTO ?`, outPath); err != nil {
		return BackupInfo{}, fmt.Errorf("write backup: %w", err)
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Path: outPath, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("target db already exists; use --force to overwrite")
		}
	}
	checksumFile := backupPath + ".sha256"
	if expected, err := os.ReadFile(checksumFile); err == nil {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(expected)) != actual {
			return fmt.Errorf("backup checksum mismatch")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale %s file: %w", suffix, err)
		}
	}
	return copyFile(backupPath, dbPath)
}

func ListBackups(dir string) ([]BackupInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".db") {
			continue
		}
		full := filepath.Join(dir, f.Name())
		st, err := os.Stat(full)
		if err != nil {
			continue
		}
		checksum := ""
		if b, err := os.ReadFile(full + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		out = append(out, BackupInfo{Path: full, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// RunDoctor checks day entries for problems the schema cannot rule out.
// With fix set, unreadable bounds are cleared and days with no values at all
// are removed.
func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	if err := db.QueryRow(`SELECT COUNT(1) FROM day_entries d LEFT JOIN logs l ON l.id = d.log_id WHERE l.id IS NULL`).Scan(&report.OrphanDays); err != nil {
		return report, fmt.Errorf("doctor orphan check: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(1) FROM day_entries WHERE weight_kg IS NULL AND calories IS NULL AND bounds_json = '' AND notes = ''`).Scan(&report.EmptyDays); err != nil {
		return report, fmt.Errorf("doctor empty day check: %w", err)
	}

	rows, err := db.Query(`SELECT id, bounds_json FROM day_entries WHERE bounds_json != ''`)
	if err != nil {
		return report, fmt.Errorf("doctor bounds query: %w", err)
	}
	badIDs := make([]int64, 0)
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("doctor bounds scan: %w", err)
		}
		if !json.Valid([]byte(raw)) {
			report.InvalidBounds++
			badIDs = append(badIDs, id)
			continue
		}
		b, err := decodeBounds(raw)
		if err != nil {
			report.InvalidBounds++
			badIDs = append(badIDs, id)
			continue
		}
		if validateBounds(b) != nil {
			report.InvertedBounds++
			badIDs = append(badIDs, id)
		}
	}
	_ = rows.Close()

	if !fix {
		return report, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("doctor fix begin tx: %w", err)
	}
	for _, id := range badIDs {
		if _, err := tx.Exec(`UPDATE day_entries SET bounds_json = '', updated_at = ? WHERE id = ?`, formatTimestamp(time.Now()), id); err != nil {
			_ = tx.Rollback()
			return report, fmt.Errorf("doctor fix bounds row %d: %w", id, err)
		}
		report.FixedBoundsRows++
	}
	res, err := tx.Exec(`DELETE FROM day_entries WHERE weight_kg IS NULL AND calories IS NULL AND bounds_json = '' AND notes = ''`)
	if err != nil {
		_ = tx.Rollback()
		return report, fmt.Errorf("doctor fix empty days: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return report, fmt.Errorf("doctor fix empty days rows affected: %w", err)
	}
	report.RemovedEmptyDays = int(removed)
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("doctor fix commit: %w", err)
	}
	return report, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
