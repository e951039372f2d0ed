package bot

import "errors"

var (
	ErrUnknownCommand      = errors.New("unknown command")
	ErrCommandExists       = errors.New("command already registered")
	ErrEmptyCommand        = errors.New("command name is empty")
	ErrMissingCreatedBy    = errors.New("conversation.created_by is required")
	ErrUnknownSupplierMode = errors.New("unknown supplier mode")
)
