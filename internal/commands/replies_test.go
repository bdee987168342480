package commands

import (
	"errors"
	"testing"

	"github.com/louisbranch/tribunal/internal/court"
	apperrors "github.com/louisbranch/tribunal/internal/platform/errors"
	"github.com/louisbranch/tribunal/internal/prison"
)

func TestReplyForErrorUserFacingOutcomes(t *testing.T) {
	cases := []error{
		court.ErrCourtCategoryNotSet,
		court.ErrNoActiveLawsuit,
		court.ErrNotJudge,
		court.ErrNotACategory,
		prison.ErrPrisonRoleNotSet,
	}
	for _, err := range cases {
		reply, operational := replyForError(err)
		if operational {
			t.Errorf("%v flagged as operational", err)
		}
		if reply == replyGeneric {
			t.Errorf("%v rendered the generic apology", err)
		}
	}
}

func TestReplyForErrorInternalFailures(t *testing.T) {
	cases := []error{
		apperrors.Wrap(apperrors.CodeStorageUnavailable, "load guild state", errors.New("connection refused")),
		apperrors.Wrap(apperrors.CodeDiscordUnavailable, "provision court room", errors.New("rate limited")),
		errors.New("plain error"),
	}
	for _, err := range cases {
		reply, operational := replyForError(err)
		if !operational {
			t.Errorf("%v not flagged as operational", err)
		}
		if reply != replyGeneric {
			t.Errorf("%v rendered %q instead of the generic apology", err, reply)
		}
	}
}
