package maze

import (
	"fmt"

	errs "github.com/matzehuels/chunkmaze/pkg/errors"
)

// Role names what a socket search selects for.
type Role string

const (
	RoleExit  Role = "exit"
	RoleEnemy Role = "enemy"
)

// SelectionExhaustedError reports that a socket search drew its full
// attempt budget without finding an eligible socket. Candidate is the last
// socket drawn; it does not satisfy the eligibility rule.
type SelectionExhaustedError struct {
	Role      Role
	Attempts  int
	Candidate PointRef
}

func (e *SelectionExhaustedError) Error() string {
	return fmt.Sprintf("%s selection exhausted after %d attempts (last candidate %s)", e.Role, e.Attempts, e.Candidate)
}

// Code implements the coded error convention of pkg/errors.
func (e *SelectionExhaustedError) Code() errs.Code { return errs.ErrCodeSelectionExhausted }

// MissingAssetError reports a spawn skipped because its asset is not configured.
type MissingAssetError struct {
	Kind string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("%s asset not configured", e.Kind)
}

func (e *MissingAssetError) Code() errs.Code { return errs.ErrCodeMissingAsset }
