package domain

import "errors"

var (
	ErrModNotFound         = errors.New("mod not found")
	ErrInvalidModStructure = errors.New("invalid mod structure")
	ErrXMLParse            = errors.New("xml parse error")
	ErrFilePermission      = errors.New("file permission denied")
	ErrDatabase            = errors.New("database error")
	ErrTranslationAPI      = errors.New("translation api error")
	ErrConfiguration       = errors.New("configuration error")
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrProviderUnavailable = errors.New("provider unavailable")
)
