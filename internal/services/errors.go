package services

import "errors"

// Common service errors
var (
	ErrNotFound            = errors.New("enregistrement introuvable")
	ErrInvalidPassword     = errors.New("mot de passe invalide")
	ErrUnauthorized        = errors.New("non autorisé")
	ErrInvalidState        = errors.New("transition d'état invalide")
	ErrDuplicate           = errors.New("enregistrement dupliqué")
	ErrConcurrencyConflict = errors.New("la demande a été modifiée par une autre opération")
	ErrInvalidRecoveryCode = errors.New("code de récupération invalide ou expiré")
)

// ValidationError carries a user-facing message for rejected input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError
func Validation(message string) error {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
