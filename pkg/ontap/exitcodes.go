package ontap

import "github.com/AndreyAkinshin/ontap/internal/errors"

// Exit codes returned by the ontap CLI.
// These constants allow external tools to check exit codes symbolically
// rather than using magic numbers.
const (
	// ExitSuccess indicates the command completed and every test passed.
	ExitSuccess = errors.ExitSuccess

	// ExitFailure indicates failing or erroring tests, or a runtime failure
	// (unreadable input, aborted reporting).
	ExitFailure = errors.ExitTestsFailed

	// ExitConfigError indicates a configuration error (invalid config, bad flag value).
	ExitConfigError = errors.ExitConfigError

	// ExitInvalidStream indicates a TAP-Y/J stream that failed validation.
	ExitInvalidStream = errors.ExitInvalidStream

	// ExitEnvError indicates an environment error (unreadable working directory).
	ExitEnvError = errors.ExitEnvironmentError
)
