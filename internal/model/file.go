package model

import "time"

// Permission levels a shared user can hold on a file.
const (
	PermissionView     = "view"
	PermissionDownload = "download"
)

func ValidPermission(p string) bool {
	return p == PermissionView || p == PermissionDownload
}

// SharedUser is one entry in a file's shared_with list. The file row owns
// these entries; they have no lifecycle of their own.
type SharedUser struct {
	UserID     string      `json:"user_id"`
	Permission string      `json:"permission"`
	SharedAt   time.Time   `json:"shared_at"`
	User       *PublicUser `json:"user,omitempty"`
}

// ShareLink is one entry in a file's share_links list. Revocation flips
// IsActive instead of removing the entry so link history is retained.
type ShareLink struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	IsActive  bool       `json:"is_active"`
}

type File struct {
	ID           string       `json:"id"`
	Filename     string       `json:"filename"`
	OriginalName string       `json:"original_name"`
	MimeType     string       `json:"mime_type"`
	Size         int64        `json:"size"`
	OwnerID      string       `json:"owner_id"`
	Owner        *PublicUser  `json:"owner,omitempty"`
	Path         string       `json:"path"`
	SharedWith   []SharedUser `json:"shared_with"`
	ShareLinks   []ShareLink  `json:"share_links"`
	UploadDate   time.Time    `json:"upload_date"`
	IsDeleted    bool         `json:"-"`
}

// SharedEntry returns the shared_with entry for userID, if any.
func (f *File) SharedEntry(userID string) (SharedUser, bool) {
	for _, entry := range f.SharedWith {
		if entry.UserID == userID {
			return entry, true
		}
	}
	return SharedUser{}, false
}

// Link returns the share link with the given id, if any.
func (f *File) Link(linkID string) (ShareLink, bool) {
	for _, link := range f.ShareLinks {
		if link.ID == linkID {
			return link, true
		}
	}
	return ShareLink{}, false
}

type ShareLinkData struct {
	Link      string     `json:"link"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type FileListData struct {
	Files []File `json:"files"`
}
