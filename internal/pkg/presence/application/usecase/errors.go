package usecase

import "fmt"

// ErrPersistence indicates a repository failure inside a use case
var ErrPersistence = fmt.Errorf("presence use case persistence error")

// ErrBroadcast indicates the pub/sub collaborator rejected a publish.
// The durable write (if any) already happened when this is returned.
var ErrBroadcast = fmt.Errorf("presence use case broadcast error")
