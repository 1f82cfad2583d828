package domain

import pkgError "github.com/AzielCF/az-agent/pkg/error"

const (
	ErrAgentNotFound = pkgError.NotFoundError("agent not found")
	ErrAgentInactive = pkgError.NotFoundError("agent is not active")
	ErrAgentExists   = pkgError.ConflictError("agent already exists")
)
