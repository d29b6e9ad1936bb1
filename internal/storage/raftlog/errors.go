package raftlog

import (
	"errors"
	"fmt"
)

// ErrInternal is the root of every error returned by this package. Log store
// failures are never user-facing: the caller should treat the store as
// unusable and restart or fail over.
var ErrInternal = errors.New("raftlog: internal error")

var (
	ErrCommitOutOfRange     = internal("cannot commit non-existent index")
	ErrCommitRegression     = internal("cannot commit below committed index")
	ErrTruncateCommitted    = internal("cannot truncate below committed index")
	ErrUncommittedExhausted = internal("unexpected end of uncommitted entries")
	ErrIndexMissing         = internal("indexed position not found")
	ErrUnexpectedEOF        = internal("unexpected end of log file")
	ErrRecordMismatch       = internal("record length does not match index")
	ErrEntryTooLarge        = internal("entry exceeds maximum record size")
	ErrCorruptMetadata      = internal("cannot decode metadata")
	ErrUnknownBackend       = internal("unknown backend")
	ErrClosed               = internal("store closed")
)

func internal(msg string) error {
	return fmt.Errorf("%w: %s", ErrInternal, msg)
}
