package system

import "errors"

var (
	// ErrNotAWorld means the folder is missing, the name is not a valid folder
	// name, or the folder has no world marker file.
	ErrNotAWorld = errors.New("not a world")
	// ErrAlreadyImported means a world with that name is registered.
	ErrAlreadyImported = errors.New("world already imported")
	// ErrBulkImportRunning is returned when another import-all is in flight.
	ErrBulkImportRunning = errors.New("bulk import already running")
	// ErrDataDeletion wraps a failed host deletion after an unimport. The
	// registry entry stays removed.
	ErrDataDeletion = errors.New("world data deletion failed")
)
