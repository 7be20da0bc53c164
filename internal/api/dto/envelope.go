package dto

import apperrors "github.com/namann16/support-tickets/pkg/util"

// Envelope is the uniform response shape for every JSON reply.
type Envelope struct {
	Success bool                   `json:"success"`
	Data    any                    `json:"data"`
	Message string                 `json:"message"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}
