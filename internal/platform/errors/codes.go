package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Configuration errors, recoverable by an administrator command.
	CodeCourtCategoryNotSet Code = "COURT_CATEGORY_NOT_SET"
	CodePrisonRoleNotSet    Code = "PRISON_ROLE_NOT_SET"

	// Policy errors.
	CodeNotJudge Code = "NOT_JUDGE"

	// Not-found conditions, reported as negative outcomes.
	CodeNoActiveLawsuit Code = "NO_ACTIVE_LAWSUIT"
	CodeNotACategory    Code = "NOT_A_CATEGORY"
	CodeNotFound        Code = "NOT_FOUND"

	// Context errors.
	CodeGuildOnly Code = "GUILD_ONLY"

	// External-system failures, rendered as a generic apology.
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeDiscordUnavailable Code = "DISCORD_UNAVAILABLE"
)

// UserFacing reports whether the code has a specific user-facing message.
// External failures and unknown errors render a generic apology instead.
func (c Code) UserFacing() bool {
	switch c {
	case CodeCourtCategoryNotSet,
		CodePrisonRoleNotSet,
		CodeNotJudge,
		CodeNoActiveLawsuit,
		CodeNotACategory,
		CodeGuildOnly:
		return true
	default:
		return false
	}
}
