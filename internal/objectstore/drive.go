package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveStore stores file bytes in Google Drive using a service account.
// Uploaded objects get an "anyone with the link" reader permission so the
// web-content URL recorded on the file row stays retrievable.
type DriveStore struct {
	svc      *drive.Service
	folderID string
}

func NewDriveStore(ctx context.Context, credentialsFile string, folderID string) (*DriveStore, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	slog.Info("drive object store ready", "folder_id", folderID)
	return &DriveStore{svc: svc, folderID: folderID}, nil
}

func (s *DriveStore) Upload(ctx context.Context, name string, mimeType string, content io.Reader) (Object, error) {
	meta := &drive.File{Name: name, MimeType: mimeType}
	if s.folderID != "" {
		meta.Parents = []string{s.folderID}
	}

	created, err := s.svc.Files.Create(meta).
		Media(content, googleapi.ContentType(mimeType)).
		Fields("id", "webContentLink", "size").
		Context(ctx).
		Do()
	if err != nil {
		return Object{}, fmt.Errorf("upload to drive: %w", err)
	}

	_, err = s.svc.Permissions.Create(created.Id, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do()
	if err != nil {
		// Roll back so a half-shared object does not linger at the provider.
		if delErr := s.svc.Files.Delete(created.Id).Context(ctx).Do(); delErr != nil {
			slog.Error("failed to clean up drive object after permission error",
				"object_id", created.Id, "error", delErr)
		}
		return Object{}, fmt.Errorf("set drive permission: %w", err)
	}

	return Object{ID: created.Id, URL: created.WebContentLink, Size: created.Size}, nil
}

func (s *DriveStore) Delete(ctx context.Context, id string) error {
	if err := s.svc.Files.Delete(id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete drive object: %w", err)
	}
	return nil
}
