// Package export moves leveling records in and out of the store as JSON,
// for backups and migrations between deployments.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"levelkit/core"
	"levelkit/engine"
)

// Snapshot is the file layout: a format version plus the flat record list.
type Snapshot struct {
	Version int                 `json:"version"`
	Records []core.MemberRecord `json:"records"`
}

const snapshotVersion = 1

// Records reads every record for one tenant, or for all tenants when tenant
// is nil.
func Records(ctx context.Context, store engine.RecordStore, tenant *core.TenantID) ([]core.MemberRecord, error) {
	if tenant != nil {
		return store.Scan(ctx, *tenant)
	}
	return store.ScanAll(ctx)
}

// WriteJSON writes a snapshot of the store to w.
func WriteJSON(ctx context.Context, store engine.RecordStore, tenant *core.TenantID, w io.Writer) error {
	records, err := Records(ctx, store, tenant)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Snapshot{Version: snapshotVersion, Records: records})
}

// WriteFile writes a snapshot to path, replacing any existing file. The
// snapshot lands in a temp file first and is renamed into place so a crash
// mid-write never leaves a truncated backup.
func WriteFile(ctx context.Context, store engine.RecordStore, tenant *core.TenantID, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := WriteJSON(ctx, store, tenant, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadJSON decodes a snapshot from r.
func ReadJSON(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("export: decode: %w", err)
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("export: unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}

// ImportJSON loads a snapshot into the store, upserting record by record.
// Returns how many records were written.
func ImportJSON(ctx context.Context, store engine.RecordStore, r io.Reader) (int, error) {
	snap, err := ReadJSON(r)
	if err != nil {
		return 0, err
	}
	written := 0
	for _, rec := range snap.Records {
		rec.Rank = nil
		if err := store.Upsert(ctx, rec); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// ImportFile loads a snapshot file into the store.
func ImportFile(ctx context.Context, store engine.RecordStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	defer f.Close()
	return ImportJSON(ctx, store, f)
}
