package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/ingest"
	"github.com/Veraticus/riskflow/internal/model"
	"github.com/Veraticus/riskflow/internal/storage"
)

// stdio is the path that selects stdin or stdout.
const stdio = "-"

func (a *app) initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(a.cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func isOFX(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return true
	}
	return false
}

// readTransactions parses one input file into raw transactions.
func readTransactions(ctx context.Context, path string) ([]model.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, common.NewUserError("cannot open input", err)
	}
	defer func() { _ = file.Close() }()

	if isOFX(path) {
		return ingest.NewOFXParser().ParseFile(ctx, file)
	}
	return ingest.ReadTransactionsCSV(file)
}

// readTable loads an input table. CSV keeps extra columns; OFX is mapped
// onto the raw schema.
func readTable(ctx context.Context, path string) (*frame.Frame, error) {
	if isOFX(path) {
		txns, err := readTransactions(ctx, path)
		if err != nil {
			return nil, err
		}
		return frame.FromTransactions(txns), nil
	}

	var r io.Reader = os.Stdin
	if path != stdio {
		file, err := os.Open(path)
		if err != nil {
			return nil, common.NewUserError("cannot open input", err)
		}
		defer func() { _ = file.Close() }()
		r = file
	}

	f, err := ingest.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	common.LogInfo("Loaded transactions", common.Fields{"path": path, "rows": f.Len()})
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// createOutput opens path for writing; "-" or "" is the given fallback.
func createOutput(path string, fallback io.Writer) (io.WriteCloser, error) {
	if path == "" || path == stdio {
		return nopCloser{fallback}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, common.NewUserError("cannot create output", err)
	}
	return file, nil
}

// writeTo creates path, runs write and closes the file, keeping the first
// error.
func writeTo(path string, fallback io.Writer, write func(io.Writer) error) (err error) {
	out, err := createOutput(path, fallback)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(out)
}

// expandFiles resolves glob patterns and plain paths.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, common.NewUserError("no files found to import", nil)
	}
	return files, nil
}
