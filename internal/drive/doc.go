// Package drive provides a small session-based client for the Google Drive API.
//
// A Client covers a fixed set of operations:
//   - Querying the account storage quota
//   - Searching files by name, following every result page
//   - Listing the first files of the drive
//   - Downloading file content
//   - Deleting files
//   - Uploading files from a local path or from memory
//   - Sharing a file with a list of users in one batch request
//
// A Client starts uninitialized. SetCredentials selects the credentials file
// and Init binds the Drive service with the full drive scope. Operations
// invoked before Init return an error matching ErrNotInitialized.
//
// Every operation returns a *Error on failure. Use errors.Is with the kind
// sentinels (ErrQuotaExhausted, ErrInvalidArgument, ...) or the HTTP status
// sentinels (ErrNotFound, ErrForbidden, ...) to branch on the cause.
//
// Example usage:
//
//	client := drive.NewClient(drive.Config{})
//	client.SetCredentials("/etc/drivefacade/service-account.json")
//	if err := client.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	quota, err := client.Quota(ctx)
//	switch {
//	case errors.Is(err, drive.ErrQuotaExhausted):
//	    // no space left
//	case err != nil:
//	    // request failed
//	default:
//	    fmt.Println(quota) // "1024 bytes available"
//	}
//
//	file, err := client.StoreFile(ctx, []byte("hello"), "hello.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := client.ShareFile(ctx, file.ID, []string{"a@example.com", "b@example.com"})
package drive
