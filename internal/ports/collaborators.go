package ports

import (
	"context"
	"io"
	"time"
)

// Audit activity kinds recorded by the core.
const (
	AuditSessionCreated  = "session.created"
	AuditSessionRefresh  = "session.refreshed"
	AuditSessionRevoked  = "session.revoked"
	AuditLicenseLinked   = "license.linked"
	AuditLicensesPaused  = "licenses.paused"
	AuditLicensesResumed = "licenses.resumed"
	AuditFileDownloaded  = "file.downloaded"
)

// AuditEntry is one activity-log record. TargetID is optional.
type AuditEntry struct {
	ActorID   string
	Kind      string
	IPAddress string
	TargetID  string
	At        time.Time
}

// AuditLog is the activity sink. It is best-effort from the core's
// perspective: a failed write must never roll back the triggering operation.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// FileInfo describes a protected download.
type FileInfo struct {
	FileID string
	Name   string
	Size   int64
}

// FileStorage is the blob-storage collaborator for protected downloads. The
// core gates access; bytes and encryption live behind this boundary.
type FileStorage interface {
	Stat(ctx context.Context, fileID string) (FileInfo, error)
	Open(ctx context.Context, fileID string) (io.ReadCloser, error)
}
