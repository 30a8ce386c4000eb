package engine

import (
	"errors"

	"voxedit.ai/internal/protocol"
	"voxedit.ai/internal/sim/edit"
)

// CodeFor maps an edit error to its wire code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, edit.ErrUnknownCommand):
		return protocol.ErrUnknownCmd
	case errors.Is(err, edit.ErrInvalidArgument):
		return protocol.ErrBadRequest
	case errors.Is(err, edit.ErrPermissionDenied):
		return protocol.ErrNoPermission
	case errors.Is(err, edit.ErrEmptyClipboard):
		return protocol.ErrInvalidTarget
	case errors.Is(err, edit.ErrNothingToUndo), errors.Is(err, edit.ErrNothingToRedo):
		return protocol.ErrConflict
	}
	return protocol.ErrInternal
}
