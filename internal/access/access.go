// Package access evaluates who may do what with a file. It is a pure
// predicate layer over already-loaded file rows: no queries, no clock reads
// beyond the instant the caller passes in.
package access

import (
	"time"

	"cloudvault/internal/model"
)

// Decision is the outcome of evaluating a user against a file.
type Decision struct {
	Granted    bool
	IsOwner    bool
	Permission string
}

// Reasons a share link can be rejected.
const (
	ReasonLinkInvalid = "link not found or inactive"
	ReasonLinkExpired = "link has expired"
)

// LinkStatus is the outcome of validating a share-link token against a file.
type LinkStatus struct {
	Valid  bool
	Reason string
	Link   model.ShareLink
}

// Evaluate determines a user's effective access to a file. The owner always
// gets download-level access, even when a shared_with entry for the owner
// exists with a weaker permission. Shared users get whatever permission was
// last granted to their entry. Everyone else is denied.
func Evaluate(file *model.File, userID string) Decision {
	if file == nil || userID == "" {
		return Decision{}
	}

	if file.OwnerID == userID {
		return Decision{Granted: true, IsOwner: true, Permission: model.PermissionDownload}
	}

	if entry, ok := file.SharedEntry(userID); ok {
		return Decision{Granted: true, Permission: entry.Permission}
	}

	return Decision{}
}

// CheckLink validates a share-link token against a file at the given instant.
// A link is valid only if an active entry with that exact token exists and,
// when an expiry is set, now is strictly before it. Inactive and unknown
// tokens are reported with the same reason so revoked links are not
// distinguishable from ones that never existed.
func CheckLink(file *model.File, token string, now time.Time) LinkStatus {
	if file == nil || token == "" {
		return LinkStatus{Reason: ReasonLinkInvalid}
	}

	for _, link := range file.ShareLinks {
		if link.Token != token || !link.IsActive {
			continue
		}

		if link.ExpiresAt != nil && !now.Before(*link.ExpiresAt) {
			return LinkStatus{Reason: ReasonLinkExpired, Link: link}
		}

		return LinkStatus{Valid: true, Link: link}
	}

	return LinkStatus{Reason: ReasonLinkInvalid}
}
