package commands

import (
	"fmt"

	apperrors "github.com/louisbranch/tribunal/internal/platform/errors"
	"github.com/louisbranch/tribunal/internal/storage"
)

// replyGeneric covers every failure the requester cannot act on. The real
// cause goes to the log and telemetry, never into the channel.
const replyGeneric = "Something went wrong. Please try again later."

// replyGuildOnly is returned for interactions arriving outside a guild.
const replyGuildOnly = "This command only works inside a server."

// errorReplies maps user-facing outcome codes to fixed replies.
var errorReplies = map[apperrors.Code]string{
	apperrors.CodeCourtCategoryNotSet: "No court category is set. Use `/lawsuit set_category` first.",
	apperrors.CodePrisonRoleNotSet:    "No prison role is set. Use `/prison set_role` first.",
	apperrors.CodeNotJudge:            "Only the judge of this case can close it.",
	apperrors.CodeNoActiveLawsuit:     "There is no active lawsuit in this channel.",
	apperrors.CodeNotACategory:        "That channel is not a category.",
	apperrors.CodeGuildOnly:           replyGuildOnly,
}

// replyForError picks the fixed reply for an outcome the requester can act
// on, and the generic apology for everything else. The second return
// reports whether the error still needs operator attention.
func replyForError(err error) (string, bool) {
	code := apperrors.GetCode(err)
	if reply, ok := errorReplies[code]; ok && code.UserFacing() {
		return reply, false
	}
	return replyGeneric, true
}

func replyLawsuitCreated(lawsuit storage.Lawsuit) string {
	return fmt.Sprintf("Lawsuit filed against <@%s>. Court is now in session in <#%s>.",
		lawsuit.Accused, lawsuit.CourtRoomID)
}

func replyLawsuitClosed(lawsuit storage.Lawsuit) string {
	return fmt.Sprintf("The court has reached a verdict: %s", lawsuit.Verdict)
}

const (
	replyCategorySet = "Court category set. New court rooms will be created there."
	replyCleared     = "All lawsuits, court rooms, and settings have been cleared."
	replyRoleSet     = "Prison role set."
)

func replyArrested(memberID string) string {
	return fmt.Sprintf("<@%s> has been sent to prison.", memberID)
}

func replyReleased(memberID string) string {
	return fmt.Sprintf("<@%s> has been released from prison.", memberID)
}
