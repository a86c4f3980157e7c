package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cloudvault/internal/model"
)

type FileRepository struct {
	pool *pgxpool.Pool
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

const fileColumns = `f.id, f.filename, f.original_name, f.mime_type, f.size, f.owner_id,
	f.path, f.shared_with, f.share_links, f.upload_date, f.is_deleted,
	u.name, u.email, u.avatar`

func (r *FileRepository) Create(ctx context.Context, f model.File) error {
	sharedJSON, linksJSON, err := marshalEmbedded(f)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO files
		 (id, filename, original_name, mime_type, size, owner_id, path,
		  shared_with, share_links, upload_date, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		f.ID, f.Filename, f.OriginalName, f.MimeType, f.Size, f.OwnerID, f.Path,
		sharedJSON, linksJSON, f.UploadDate, f.IsDeleted)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// FindByID returns the row regardless of the soft-delete flag; callers decide
// whether a deleted row counts as missing (the audit trail still needs it).
func (r *FileRepository) FindByID(ctx context.Context, id string) (model.File, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+fileColumns+`
		 FROM files f JOIN users u ON u.id = f.owner_id
		 WHERE f.id = $1`, id)

	f, err := scanFile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.File{}, model.ErrFileNotFound
	}
	if err != nil {
		return model.File{}, fmt.Errorf("find file by id: %w", err)
	}
	return f, nil
}

func (r *FileRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.File, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fileColumns+`
		 FROM files f JOIN users u ON u.id = f.owner_id
		 WHERE f.owner_id = $1 AND f.is_deleted = false
		 ORDER BY f.upload_date DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files by owner: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

func (r *FileRepository) ListSharedWith(ctx context.Context, userID string) ([]model.File, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fileColumns+`
		 FROM files f JOIN users u ON u.id = f.owner_id
		 WHERE f.shared_with @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
		   AND f.is_deleted = false
		 ORDER BY f.upload_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared files: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// FindByLinkToken resolves a share-link token to its file. Soft-deleted files
// are excluded so their links die with them.
func (r *FileRepository) FindByLinkToken(ctx context.Context, token string) (model.File, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+fileColumns+`
		 FROM files f JOIN users u ON u.id = f.owner_id
		 WHERE f.share_links @> jsonb_build_array(jsonb_build_object('token', $1::text))
		   AND f.is_deleted = false`, token)

	f, err := scanFile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.File{}, model.ErrFileNotFound
	}
	if err != nil {
		return model.File{}, fmt.Errorf("find file by link token: %w", err)
	}
	return f, nil
}

func (r *FileRepository) SetSharedWith(ctx context.Context, fileID string, sharedWith []model.SharedUser) error {
	data, err := json.Marshal(normalizeSharedWith(sharedWith))
	if err != nil {
		return fmt.Errorf("marshal shared_with: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE files SET shared_with = $2 WHERE id = $1`, fileID, data)
	if err != nil {
		return fmt.Errorf("update shared_with: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFileNotFound
	}
	return nil
}

func (r *FileRepository) SetShareLinks(ctx context.Context, fileID string, links []model.ShareLink) error {
	if links == nil {
		links = []model.ShareLink{}
	}
	data, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshal share_links: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE files SET share_links = $2 WHERE id = $1`, fileID, data)
	if err != nil {
		return fmt.Errorf("update share_links: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFileNotFound
	}
	return nil
}

func (r *FileRepository) SoftDelete(ctx context.Context, fileID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE files SET is_deleted = true WHERE id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("soft delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFileNotFound
	}
	return nil
}

// normalizeSharedWith strips the joined User projection before persisting;
// display fields are hydrated on reads, not stored.
func normalizeSharedWith(sharedWith []model.SharedUser) []model.SharedUser {
	out := make([]model.SharedUser, 0, len(sharedWith))
	for _, entry := range sharedWith {
		entry.User = nil
		out = append(out, entry)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (model.File, error) {
	var f model.File
	var owner model.PublicUser
	var sharedJSON, linksJSON []byte

	err := row.Scan(
		&f.ID, &f.Filename, &f.OriginalName, &f.MimeType, &f.Size, &f.OwnerID,
		&f.Path, &sharedJSON, &linksJSON, &f.UploadDate, &f.IsDeleted,
		&owner.Name, &owner.Email, &owner.Avatar,
	)
	if err != nil {
		return model.File{}, err
	}

	owner.ID = f.OwnerID
	f.Owner = &owner

	f.SharedWith = make([]model.SharedUser, 0)
	if len(sharedJSON) > 0 {
		if err := json.Unmarshal(sharedJSON, &f.SharedWith); err != nil {
			return model.File{}, fmt.Errorf("unmarshal shared_with: %w", err)
		}
	}

	f.ShareLinks = make([]model.ShareLink, 0)
	if len(linksJSON) > 0 {
		if err := json.Unmarshal(linksJSON, &f.ShareLinks); err != nil {
			return model.File{}, fmt.Errorf("unmarshal share_links: %w", err)
		}
	}

	return f, nil
}

func scanFiles(rows pgx.Rows) ([]model.File, error) {
	files := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func marshalEmbedded(f model.File) ([]byte, []byte, error) {
	sharedJSON, err := json.Marshal(normalizeSharedWith(f.SharedWith))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal shared_with: %w", err)
	}

	links := f.ShareLinks
	if links == nil {
		links = []model.ShareLink{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal share_links: %w", err)
	}

	return sharedJSON, linksJSON, nil
}
