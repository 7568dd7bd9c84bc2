package google

import (
	drive "google.golang.org/api/drive/v3"
)

// DriveScopes are the OAuth scopes requested for a Drive session.
// The drive scope grants read and write access to all files in the user's Drive.
var DriveScopes = []string{
	drive.DriveScope,
}
