package application

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

// OpenProtectedFile gates a protected download behind a live session whose
// license has a bound hardware identity. The caller owns closing the reader.
func (s *Service) OpenProtectedFile(ctx context.Context, bearer, fileID, ipAddress string) (ports.FileInfo, io.ReadCloser, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return ports.FileInfo{}, nil, fmt.Errorf("%w: file id is required", domain.ErrInvalidInput)
	}

	if s.files == nil {
		return ports.FileInfo{}, nil, fmt.Errorf("%w: file storage not configured", domain.ErrNotFound)
	}

	sess, claims, err := s.loadValidSession(ctx, bearer)
	if err != nil {
		return ports.FileInfo{}, nil, err
	}
	if sess.FingerprintID == nil {
		return ports.FileInfo{}, nil, domain.ErrSessionUnbound
	}

	info, err := s.files.Stat(ctx, fileID)
	if err != nil {
		return ports.FileInfo{}, nil, fmt.Errorf("stat protected file: %w", err)
	}
	reader, err := s.files.Open(ctx, fileID)
	if err != nil {
		return ports.FileInfo{}, nil, fmt.Errorf("open protected file: %w", err)
	}

	s.recordAudit(ctx, claims.LicenseID.String(), ports.AuditFileDownloaded, ipAddress, fileID)
	return info, reader, nil
}
