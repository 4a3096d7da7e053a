// Package presenter holds the user form's behaviour, independent of how the
// form is drawn. A front end implements View and forwards its events to Page.
package presenter

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"

	domain "userdesk/internal/domain/user"
)

// Messages shown to the user.
const (
	MsgCreated        = "User added successfully!"
	MsgCreateFailed   = "Failed to add the user."
	MsgUpdated        = "User updated successfully!"
	MsgUpdateFailed   = "Failed to update the user."
	MsgDeleted        = "User deleted successfully!"
	MsgDeleteFailed   = "Failed to delete the user."
	MsgInvalidInput   = "Please enter valid data. Make sure the age is between 18 and 100."
	MsgSelectToUpdate = "Please select a user to update."
	MsgSelectToDelete = "Please select a user to delete."
)

// UserAPI is the part of the backend client the form uses.
type UserAPI interface {
	ListUsers(ctx context.Context) []domain.User
	CreateUser(ctx context.Context, u *domain.User) bool
	UpdateUser(ctx context.Context, u *domain.User) bool
	DeleteUser(ctx context.Context, id int64) bool
}

// Field identifies an input of the form.
type Field int

const (
	FieldFirstName Field = iota
	FieldLastName
	FieldAge
)

// Form is the raw text of the form inputs.
type Form struct {
	LastName  string
	FirstName string
	Age       string
}

// View renders what the page decides.
type View interface {
	ShowUsers(users []domain.User)
	ShowMessage(msg string)
	SetFields(f Form)
	Focus(field Field)
}

// formInput is the parsed form, checked with the same rules the form highlights.
type formInput struct {
	LastName  string `validate:"notblank"`
	FirstName string `validate:"notblank"`
	Age       int    `validate:"min=18,max=100"`
}

// Page is the user management form. Events must not run concurrently.
type Page struct {
	api      UserAPI
	view     View
	log      *zap.Logger
	validate *validator.Validate

	users    []domain.User
	selected *domain.User
}

// New creates a Page driving view with api.
func New(api UserAPI, view View, log *zap.Logger) *Page {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return &Page{
		api:      api,
		view:     view,
		log:      log.Named("presenter"),
		validate: v,
	}
}

// Users returns the list shown by the last Load.
func (p *Page) Users() []domain.User {
	return p.users
}

// Selected returns the selected user, or nil.
func (p *Page) Selected() *domain.User {
	return p.selected
}

// Load fetches the user list and shows it.
func (p *Page) Load(ctx context.Context) {
	p.users = p.api.ListUsers(ctx)
	p.log.Debug("user list loaded", zap.Int("count", len(p.users)))
	p.view.ShowUsers(p.users)
}

// Select makes u the selected user and copies it into the form.
func (p *Page) Select(u domain.User) {
	p.selected = &u
	p.view.SetFields(Form{
		LastName:  u.LastName,
		FirstName: u.FirstName,
		Age:       strconv.Itoa(u.Age),
	})
}

// SelectByID selects the user with the given id from the loaded list.
// It reports whether such a user was found.
func (p *Page) SelectByID(id int64) bool {
	for _, u := range p.users {
		if u.ID == id {
			p.Select(u)
			return true
		}
	}
	return false
}

// Add creates a user from the form. It reports whether the user was created.
func (p *Page) Add(ctx context.Context, f Form) bool {
	age, ok := p.ValidateForm(f)
	if !ok {
		p.view.ShowMessage(MsgInvalidInput)
		return false
	}

	u := &domain.User{LastName: f.LastName, FirstName: f.FirstName, Age: age}
	if !p.api.CreateUser(ctx, u) {
		p.view.ShowMessage(MsgCreateFailed)
		return false
	}

	p.view.ShowMessage(MsgCreated)
	p.afterWrite(ctx)
	return true
}

// Update overwrites the selected user with the form. It reports whether the
// user was updated.
func (p *Page) Update(ctx context.Context, f Form) bool {
	if p.selected == nil {
		p.view.ShowMessage(MsgSelectToUpdate)
		return false
	}

	age, ok := p.ValidateForm(f)
	if !ok {
		p.view.ShowMessage(MsgInvalidInput)
		return false
	}

	u := &domain.User{ID: p.selected.ID, LastName: f.LastName, FirstName: f.FirstName, Age: age}
	if !p.api.UpdateUser(ctx, u) {
		p.view.ShowMessage(MsgUpdateFailed)
		return false
	}

	p.view.ShowMessage(MsgUpdated)
	p.afterWrite(ctx)
	return true
}

// Delete removes the selected user. It reports whether the user was deleted.
func (p *Page) Delete(ctx context.Context) bool {
	if p.selected == nil {
		p.view.ShowMessage(MsgSelectToDelete)
		return false
	}

	if !p.api.DeleteUser(ctx, p.selected.ID) {
		p.view.ShowMessage(MsgDeleteFailed)
		return false
	}

	p.view.ShowMessage(MsgDeleted)
	p.afterWrite(ctx)
	return true
}

// Clear empties the form, drops the selection, reloads the list and puts
// the cursor back on the first name.
func (p *Page) Clear(ctx context.Context) {
	p.clearFields()
	p.Load(ctx)
}

// ValidateForm checks the form: both names non-blank and an integer age in
// [18,100]. It returns the parsed age.
func (p *Page) ValidateForm(f Form) (int, bool) {
	age, err := strconv.Atoi(strings.TrimSpace(f.Age))
	if err != nil {
		p.log.Debug("form validation failed", zap.String("age", f.Age), zap.Error(err))
		return 0, false
	}

	if err := p.validate.Struct(formInput{LastName: f.LastName, FirstName: f.FirstName, Age: age}); err != nil {
		p.log.Debug("form validation failed", zap.Error(err))
		return 0, false
	}
	return age, true
}

// AgeFieldValid reports whether text is an acceptable age, for highlighting
// the age input while it is typed.
func AgeFieldValid(text string) bool {
	age, err := strconv.Atoi(strings.TrimSpace(text))
	return err == nil && age >= domain.MinAge && age <= domain.MaxAge
}

func (p *Page) afterWrite(ctx context.Context) {
	p.Load(ctx)
	p.clearFields()
}

func (p *Page) clearFields() {
	p.selected = nil
	p.view.SetFields(Form{})
	p.view.Focus(FieldFirstName)
}
