package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyMember      = errors.New("already member of a team")
	ErrNotInAnyTeam       = errors.New("not in any team")
	ErrTeamFull           = errors.New("team full")
	ErrUnknownTeam        = errors.New("unknown team")
	ErrDuplicateTeamID    = errors.New("duplicate team id")
	ErrUserNotInTeam      = errors.New("user not in team")
	ErrProvisioningFailed = errors.New("provisioning failed")
	ErrPersistenceFailed  = errors.New("persistence failed")
	ErrRestoreIncomplete  = errors.New("restore incomplete")
	ErrPlatform           = errors.New("platform error")
)

type AlreadyMemberError struct {
	TeamID int
}

func (e *AlreadyMemberError) Error() string {
	return fmt.Sprintf("already member of team %d", e.TeamID)
}

func (e *AlreadyMemberError) Is(target error) bool { return target == ErrAlreadyMember }

// ProvisioningError indica en qué paso de la creación del team falló Discord.
type ProvisioningError struct {
	Step string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

func (e *ProvisioningError) Is(target error) bool { return target == ErrProvisioningFailed }

type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "persistence failed: " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistenceFailed }

type RestoreIncompleteError struct {
	TeamID int
	Reason string
}

func (e *RestoreIncompleteError) Error() string {
	return fmt.Sprintf("restore incomplete for team %d: %s", e.TeamID, e.Reason)
}

func (e *RestoreIncompleteError) Is(target error) bool { return target == ErrRestoreIncomplete }

// PlatformError envuelve cualquier fallo REST de Discord.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string { return fmt.Sprintf("discord %s: %v", e.Op, e.Err) }

func (e *PlatformError) Unwrap() error { return e.Err }

func (e *PlatformError) Is(target error) bool { return target == ErrPlatform }
