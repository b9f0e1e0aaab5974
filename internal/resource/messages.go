package resource

// Messages are the alert texts shown when an operation fails.
type Messages struct {
	Fetch      string
	Save       string
	Toggle     string
	Delete     string
	Restore    string
	HardDelete string
}

var UserMessages = Messages{
	Fetch:      "Failed to fetch users",
	Save:       "Failed to save user",
	Toggle:     "Status update failed",
	Delete:     "Delete failed",
	Restore:    "Restore failed",
	HardDelete: "Permanent delete failed",
}

var RoleMessages = Messages{
	Fetch:      "Failed to fetch roles",
	Save:       "Failed to save role",
	Toggle:     "Status update failed",
	Delete:     "Delete failed",
	Restore:    "Restore failed",
	HardDelete: "Permanent delete failed",
}

type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
