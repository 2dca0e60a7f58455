// Package backup converts the whole ledger to and from its JSON backup document.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"haushaltskasse/internal/core"
	"haushaltskasse/internal/storage"
)

// Version is written into every exported document.
const Version = "1.0"

// Document is the backup file layout.
type Document struct {
	Users        []core.User        `json:"users"`
	Incomes      []core.Income      `json:"incomes"`
	Expenses     []core.Expense     `json:"expenses"`
	SavingsGoals []core.SavingsGoal `json:"savingsGoals"`
	ExportDate   time.Time          `json:"exportDate"`
	Version      string             `json:"version"`
}

// Export reads every collection of store into a document stamped with now.
func Export(ctx context.Context, store storage.Store, now time.Time) (Document, error) {
	snap, err := storage.Load(ctx, store)
	if err != nil {
		return Document{}, fmt.Errorf("load store: %w", err)
	}
	doc := Document{
		Users:        snap.Users,
		Incomes:      snap.Incomes,
		Expenses:     snap.Expenses,
		SavingsGoals: snap.SavingsGoals,
		ExportDate:   now.UTC(),
		Version:      Version,
	}
	if doc.Users == nil {
		doc.Users = []core.User{}
	}
	if doc.Incomes == nil {
		doc.Incomes = []core.Income{}
	}
	if doc.Expenses == nil {
		doc.Expenses = []core.Expense{}
	}
	if doc.SavingsGoals == nil {
		doc.SavingsGoals = []core.SavingsGoal{}
	}
	return doc, nil
}

// Encode renders the document as indented JSON.
func (d Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// FileName is the download name of a backup taken at t.
func FileName(t time.Time) string {
	return "haushaltskasse-backup-" + t.Format("2006-01-02") + ".json"
}

// Saver stores an encoded backup under name.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) error
}

// FileSaver writes backups into Dir, replacing a file of the same name.
type FileSaver struct {
	Dir string
}

func (s FileSaver) Save(ctx context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".backup-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move backup into place: %w", err)
	}

	slog.InfoContext(ctx, "Backup written", "path", path, "bytes", len(data))
	return nil
}

// ExportTo exports store and hands the encoded document to saver.
// It returns the file name used.
func ExportTo(ctx context.Context, store storage.Store, saver Saver, now time.Time) (string, error) {
	doc, err := Export(ctx, store, now)
	if err != nil {
		return "", err
	}
	data, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	name := FileName(now)
	if err := saver.Save(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}
