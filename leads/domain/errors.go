package domain

import pkgError "github.com/AzielCF/az-agent/pkg/error"

const (
	ErrLeadNotFound      = pkgError.NotFoundError("lead not found")
	ErrAgentIDRequired   = pkgError.ValidationError("agentId is required")
	ErrInvalidTransition = pkgError.ValidationError("invalid lead status transition")
)
