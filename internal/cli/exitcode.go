package cli

import (
	"errors"

	"polywarp/pkg/polywarp"
)

// ExitCode is the process exit status of a failed command.
type ExitCode int

const (
	ExitGeneralError ExitCode = 1
	ExitInvalidInput ExitCode = 2
	ExitSingular     ExitCode = 3
	// ExitAborted follows the shell convention for SIGINT.
	ExitAborted ExitCode = 130
)

func exitCodeFor(err error) ExitCode {
	switch {
	case errors.Is(err, polywarp.ErrAborted):
		return ExitAborted
	case errors.Is(err, polywarp.ErrSingularSystem):
		return ExitSingular
	case errors.Is(err, polywarp.ErrInvalidInput), errors.Is(err, polywarp.ErrDimensionMismatch):
		return ExitInvalidInput
	}
	return ExitGeneralError
}
