package drive

import (
	"errors"
	"fmt"
)

// RemoteFile identifies a file in Google Drive. The ID is assigned by Drive.
type RemoteFile struct {
	// ID is the opaque identifier of the file
	ID string `json:"id"`

	// Name is the display name of the file
	Name string `json:"name"`
}

// QuotaInfo holds the account storage quota, in bytes.
type QuotaInfo struct {
	// Limit is the storage limit; zero when Unlimited is set
	Limit int64 `json:"limit"`

	// Usage is the storage currently used across all services
	Usage int64 `json:"usage"`

	// Unlimited is set when Drive reports no limit for the account
	Unlimited bool `json:"unlimited"`
}

// Available returns Limit minus Usage. It is meaningless when Unlimited is
// set.
func (q QuotaInfo) Available() int64 {
	return q.Limit - q.Usage
}

// String reports the bytes still available. A limited quota with nothing
// left reads "quota exhausted" rather than a non-positive count.
func (q QuotaInfo) String() string {
	switch {
	case q.Unlimited:
		return "unlimited storage available"
	case q.Available() <= 0:
		return "quota exhausted"
	}
	return fmt.Sprintf("%d bytes available", q.Available())
}

// ShareRequest grants write access on a file to a list of users.
type ShareRequest struct {
	// FileID is the file to share
	FileID string `json:"fileId"`

	// Emails receive one permission grant each
	Emails []string `json:"emails"`
}

// ShareOptions shape every grant created by ShareFile.
type ShareOptions struct {
	// Role is the role granted to each recipient
	Role string

	// TransferOwnership asks Drive to transfer ownership to the grantee
	TransferOwnership bool

	// SendNotificationEmail mails the grantee about the new permission
	SendNotificationEmail bool
}

// DefaultShareOptions returns writer grants that transfer ownership and notify the grantee.
func DefaultShareOptions() ShareOptions {
	return ShareOptions{
		Role:                  RoleWriter,
		TransferOwnership:     true,
		SendNotificationEmail: true,
	}
}

// GrantResult is the outcome of one permission grant inside a batch.
type GrantResult struct {
	EmailAddress string `json:"emailAddress"`
	PermissionID string `json:"permissionId,omitempty"`
	StatusCode   int    `json:"statusCode"`
	Err          error  `json:"-"`
}

// ShareResult aggregates the grants of one ShareFile call, in request order.
type ShareResult struct {
	FileID string        `json:"fileId"`
	Grants []GrantResult `json:"grants"`
}

// Failed returns the number of grants that did not succeed.
func (r *ShareResult) Failed() int {
	n := 0
	for _, g := range r.Grants {
		if g.Err != nil {
			n++
		}
	}
	return n
}

// Err joins the errors of all failed grants, or returns nil.
func (r *ShareResult) Err() error {
	var errs []error
	for _, g := range r.Grants {
		if g.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", g.EmailAddress, g.Err))
		}
	}
	return errors.Join(errs...)
}
