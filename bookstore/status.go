package bookstore

import "fmt"

// Status is the outcome of an engine call. Anything but Success means the
// call changed nothing.
type Status int

const (
	Success Status = iota
	InvalidCredentials
	PermissionDenied
	NotFound
	DuplicateISBN
	InsufficientStock
	NothingSelected
	InvalidArgument
	StorageFault
	DuplicateUser
)

var statusText = map[Status]string{
	Success:            "success",
	InvalidCredentials: "invalid credentials",
	PermissionDenied:   "permission denied",
	NotFound:           "not found",
	DuplicateISBN:      "duplicate isbn",
	InsufficientStock:  "insufficient stock",
	NothingSelected:    "nothing selected",
	InvalidArgument:    "invalid argument",
	StorageFault:       "storage fault",
	DuplicateUser:      "user already exists",
}

func (s Status) String() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// OK reports whether s is Success.
func (s Status) OK() bool { return s == Success }
