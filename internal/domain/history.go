package domain

import (
	"strconv"
	"time"
)

// RecordAttempt stores a result for the question's current round. When the
// last attempt is locked (or there is none) a new round is appended; an
// unlocked last attempt is overwritten instead so that a question never holds
// two unlocked attempts.
func (r *QuestionAnswerRecord) RecordAttempt(result Result, at time.Time) error {
	if result != ResultPass && result != ResultFail {
		return NewValidationError("result must be pass or fail")
	}
	if last := r.Last(); last != nil && !last.Locked {
		last.Result = result
		last.AnsweredAt = at
		return nil
	}
	r.Attempts = append(r.Attempts, Attempt{
		Round:      len(r.Attempts) + 1,
		Result:     result,
		AnsweredAt: at,
	})
	return nil
}

// ToggleLastResult cycles the unlocked last attempt: pass becomes fail, and
// fail is removed so the round reads as unanswered again.
func (r *QuestionAnswerRecord) ToggleLastResult(at time.Time) error {
	last := r.Last()
	if last == nil {
		return NewInvalidStateTransitionError("question has no attempts to toggle")
	}
	if last.Locked {
		return NewInvalidStateTransitionError("last attempt is locked").
			WithContext("round", last.Round)
	}
	if last.Result == ResultPass {
		return r.RecordAttempt(ResultFail, at)
	}
	r.Attempts = r.Attempts[:len(r.Attempts)-1]
	return nil
}

// ToggleLock flips the confirmation flag of the last attempt.
func (r *QuestionAnswerRecord) ToggleLock() error {
	last := r.Last()
	if last == nil {
		return NewInvalidStateTransitionError("question has no attempts to lock")
	}
	last.Locked = !last.Locked
	return nil
}

// DeleteLastAttempt undoes the newest attempt. Locked attempts are immutable
// and must be unlocked first.
func (r *QuestionAnswerRecord) DeleteLastAttempt() error {
	last := r.Last()
	if last == nil {
		return NewInvalidStateTransitionError("question has no attempts to delete")
	}
	if last.Locked {
		return NewInvalidStateTransitionError("last attempt is locked").
			WithContext("round", last.Round)
	}
	r.Attempts = r.Attempts[:len(r.Attempts)-1]
	return nil
}

// Advance applies the repeated-tap intent: an unanswered question or a locked
// round starts a new pass, an unlocked round goes through the toggle cycle.
func (r *QuestionAnswerRecord) Advance(at time.Time) error {
	last := r.Last()
	if last == nil || last.Locked {
		return r.RecordAttempt(ResultPass, at)
	}
	return r.ToggleLastResult(at)
}

// PendingRound is the round the next interaction will create or edit.
func (r *QuestionAnswerRecord) PendingRound() int {
	last := r.Last()
	switch {
	case last == nil:
		return 1
	case last.Locked:
		return last.Round + 1
	default:
		return last.Round
	}
}

// Questions returns the question set addressed by chapter and optional section.
func (b *QuizBook) Questions(chapterID, sectionID string) (*QuestionSet, error) {
	c := b.Chapter(chapterID)
	if c == nil {
		return nil, NewNotFoundError("chapter", chapterID)
	}
	switch l := c.Layout.(type) {
	case *FlatLayout:
		if sectionID != "" {
			return nil, NewNotFoundError("section", sectionID)
		}
		return &l.Questions, nil
	case *SectionedLayout:
		if sectionID == "" {
			return nil, NewValidationError("section id is required for a sectioned chapter")
		}
		s := c.Section(sectionID)
		if s == nil {
			return nil, NewNotFoundError("section", sectionID)
		}
		return &s.Questions, nil
	default:
		return nil, NewInvalidStateTransitionError("chapter layout is not decided yet").
			WithContext("chapter_id", chapterID)
	}
}

func (b *QuizBook) question(ref QuestionRef) (*QuestionSet, error) {
	qs, err := b.Questions(ref.ChapterID, ref.SectionID)
	if err != nil {
		return nil, err
	}
	if ref.Number < 1 || ref.Number > qs.Count {
		return nil, NewNotFoundError("question", strconv.Itoa(ref.Number))
	}
	return qs, nil
}

// Answer returns the record of a question; nil with no error means never attempted.
func (b *QuizBook) Answer(ref QuestionRef) (*QuestionAnswerRecord, error) {
	qs, err := b.question(ref)
	if err != nil {
		return nil, err
	}
	return qs.Answer(ref.Number), nil
}

func (b *QuizBook) mutateAnswer(ref QuestionRef, create bool, fn func(*QuestionAnswerRecord) error) (*QuestionAnswerRecord, error) {
	qs, err := b.question(ref)
	if err != nil {
		return nil, err
	}
	rec := qs.Answer(ref.Number)
	if rec == nil {
		if !create {
			return nil, NewInvalidStateTransitionError("question has no attempts").
				WithContext("question_number", ref.Number)
		}
		rec = &QuestionAnswerRecord{QuestionNumber: ref.Number, Attempts: []Attempt{}}
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if qs.Answer(ref.Number) == nil {
		qs.Answers = append(qs.Answers, rec)
	}
	b.RefreshRates()
	return rec, nil
}

// RecordAttempt records a result for the referenced question.
func (b *QuizBook) RecordAttempt(ref QuestionRef, result Result, at time.Time) (*QuestionAnswerRecord, error) {
	return b.mutateAnswer(ref, true, func(r *QuestionAnswerRecord) error {
		return r.RecordAttempt(result, at)
	})
}

// ToggleLastResult runs the pass -> fail -> unanswered cycle on the referenced question.
func (b *QuizBook) ToggleLastResult(ref QuestionRef, at time.Time) (*QuestionAnswerRecord, error) {
	return b.mutateAnswer(ref, false, func(r *QuestionAnswerRecord) error {
		return r.ToggleLastResult(at)
	})
}

// ToggleLock locks or unlocks the referenced question's last attempt.
func (b *QuizBook) ToggleLock(ref QuestionRef) (*QuestionAnswerRecord, error) {
	return b.mutateAnswer(ref, false, func(r *QuestionAnswerRecord) error {
		return r.ToggleLock()
	})
}

// DeleteLastAttempt removes the referenced question's unlocked last attempt.
func (b *QuizBook) DeleteLastAttempt(ref QuestionRef) (*QuestionAnswerRecord, error) {
	return b.mutateAnswer(ref, false, func(r *QuestionAnswerRecord) error {
		return r.DeleteLastAttempt()
	})
}

// Advance applies the repeated-tap intent to the referenced question.
func (b *QuizBook) Advance(ref QuestionRef, at time.Time) (*QuestionAnswerRecord, error) {
	return b.mutateAnswer(ref, true, func(r *QuestionAnswerRecord) error {
		return r.Advance(at)
	})
}

// SetMemo upserts the memo, creating an empty record for untouched questions.
func (b *QuizBook) SetMemo(ref QuestionRef, memo string) (*QuestionAnswerRecord, error) {
	return b.mutateAnswer(ref, true, func(r *QuestionAnswerRecord) error {
		r.Memo = memo
		return nil
	})
}
