package console

import (
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "users-console/pkg/errors"
)

// Mode tells whether a submit creates a new user or updates FormState.TargetID.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// FormState is the content of the user form of one session.
type FormState struct {
	Name     string
	Email    string
	Mode     Mode
	TargetID int64 // set only in ModeEdit
}

// Editing returns the edit target, if any.
func (f FormState) Editing() (int64, bool) {
	return f.TargetID, f.Mode == ModeEdit
}

// cleared keeps the mode and drops the field values.
func (f FormState) cleared() FormState {
	f.Name, f.Email = "", ""
	return f
}

// formInput is the trimmed form as sent to the server.
type formInput struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

func (f FormState) input() formInput {
	return formInput{Name: strings.TrimSpace(f.Name), Email: strings.TrimSpace(f.Email)}
}

// check rejects a form with an empty field. Any other rule is the server's.
func check(v *validator.Validate, in formInput) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return pkgerrors.NewValidationError("", err.Error())
	}
	return pkgerrors.NewValidationError(strings.ToLower(verrs[0].Field()), "must not be empty")
}
