// Package txerr holds the sentinel errors the Manager and Receiver use
// to decide retry/branch/drop behavior, generalizing the teacher's
// utils/errors.go (ErrLockTimeout, ErrTimeout) to the three recoverable
// kinds spec.md §7 names. SocketFatal and MalformedFrame are not
// sentinel errors here — per spec.md §7 they terminate the process, so
// they are config.CheckError/panic calls at the point of detection,
// exactly like the teacher's own unrecoverable conditions.
package txerr

import "errors"

var (
	// ErrTimeout means a phase or idle wait returned without the
	// predicate becoming true before its deadline. Expected; triggers
	// phase retry/fall-through per spec.md §4.5.
	ErrTimeout = errors.New("timeout")

	// ErrWrongID means a response arrived tagged with an id that does
	// not match the transaction currently in the cell. Logged and
	// dropped by the Receiver.
	ErrWrongID = errors.New("wrong booking id")

	// ErrNoCurrent means a response arrived while the cell held no
	// transaction at all. Logged and dropped by the Receiver.
	ErrNoCurrent = errors.New("no current booking")
)
