package contracts

import (
	"bytes"
	"errors"
)

// Contract errors, decoded from revert data.
var (
	ErrTooEarlyToClaim               = errors.New("too early to claim")
	ErrUserNotFound                  = errors.New("user not found")
	ErrLessonsNotCompleted           = errors.New("lessons not completed")
	ErrBadgeMintingFailed            = errors.New("badge minting failed")
	ErrAlreadyClaimedCompletionBadge = errors.New("already claimed completion badge")
)

var contractErrors = map[string]error{
	"TooEarlyToClaim":               ErrTooEarlyToClaim,
	"UserNotFound":                  ErrUserNotFound,
	"LessonsNotCompleted":           ErrLessonsNotCompleted,
	"BadgeMintingFailed":            ErrBadgeMintingFailed,
	"AlreadyClaimedCompletionBadge": ErrAlreadyClaimedCompletionBadge,
}

// DecodeRevert maps revert data to one of the contract's sentinel errors.
// It returns nil when the data does not match a known error selector.
func (b *MaginkBinding) DecodeRevert(data []byte) error {
	if len(data) < 4 {
		return nil
	}
	for name, abiErr := range b.abi.Errors {
		if bytes.Equal(abiErr.ID[:4], data[:4]) {
			if sentinel, ok := contractErrors[name]; ok {
				return sentinel
			}
		}
	}
	return nil
}

// ErrorName returns the contract error name wrapped by err, if any.
func ErrorName(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	for name, sentinel := range contractErrors {
		if errors.Is(err, sentinel) {
			return name, true
		}
	}
	return "", false
}
