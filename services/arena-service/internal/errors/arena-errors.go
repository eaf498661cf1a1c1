package errors

import (
	"fmt"

	apperrors "github.com/burakmert236/arenaview/common/errors"
)

func ArenaNotFound(arenaID string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no such tournament: %s", arenaID))
}

func DecodeFailed(err error, reason string) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.CodeObjectUnmarshalError, reason)
}

func StreamFailed(err error, source string) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.CodeEventSubscribtionError,
		fmt.Sprintf("%s stream failed", source))
}

func InvalidPage(raw string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeInvalidInput,
		fmt.Sprintf("page must be a positive integer, got %q", raw))
}
