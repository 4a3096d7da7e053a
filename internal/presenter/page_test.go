package presenter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	domain "userdesk/internal/domain/user"
)

// MockUserAPI is a mock implementation of UserAPI
type MockUserAPI struct {
	mock.Mock
}

func (m *MockUserAPI) ListUsers(ctx context.Context) []domain.User {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User)
}

func (m *MockUserAPI) CreateUser(ctx context.Context, u *domain.User) bool {
	args := m.Called(ctx, u)
	return args.Bool(0)
}

func (m *MockUserAPI) UpdateUser(ctx context.Context, u *domain.User) bool {
	args := m.Called(ctx, u)
	return args.Bool(0)
}

func (m *MockUserAPI) DeleteUser(ctx context.Context, id int64) bool {
	args := m.Called(ctx, id)
	return args.Bool(0)
}

// recordingView keeps every call in order.
type recordingView struct {
	events   []string
	users    []domain.User
	messages []string
	fields   Form
	focus    Field
}

func (v *recordingView) ShowUsers(users []domain.User) {
	v.events = append(v.events, "users")
	v.users = users
}

func (v *recordingView) ShowMessage(msg string) {
	v.events = append(v.events, "message")
	v.messages = append(v.messages, msg)
}

func (v *recordingView) SetFields(f Form) {
	v.events = append(v.events, "fields")
	v.fields = f
}

func (v *recordingView) Focus(field Field) {
	v.events = append(v.events, "focus")
	v.focus = field
}

func (v *recordingView) lastMessage() string {
	if len(v.messages) == 0 {
		return ""
	}
	return v.messages[len(v.messages)-1]
}

func setupPage(t *testing.T) (*Page, *MockUserAPI, *recordingView) {
	api := new(MockUserAPI)
	view := &recordingView{focus: -1}
	return New(api, view, zaptest.NewLogger(t)), api, view
}

var (
	ctx      = context.Background()
	existing = []domain.User{
		{ID: 1, LastName: "Dupont", FirstName: "Jean", Age: 30},
		{ID: 2, LastName: "Martin", FirstName: "Claire", Age: 42},
	}
)

func TestLoad(t *testing.T) {
	page, api, view := setupPage(t)
	api.On("ListUsers", ctx).Return(existing)

	page.Load(ctx)

	assert.Equal(t, existing, view.users)
	assert.Equal(t, existing, page.Users())
	api.AssertExpectations(t)
}

func TestValidateForm(t *testing.T) {
	page, _, _ := setupPage(t)

	tests := []struct {
		name    string
		form    Form
		wantAge int
		wantOK  bool
	}{
		{"valid", Form{"Dupont", "Jean", "30"}, 30, true},
		{"lower bound", Form{"Dupont", "Jean", "18"}, 18, true},
		{"upper bound", Form{"Dupont", "Jean", "100"}, 100, true},
		{"surrounding spaces in age", Form{"Dupont", "Jean", " 25 "}, 25, true},
		{"too young", Form{"Dupont", "Jean", "17"}, 0, false},
		{"too old", Form{"Dupont", "Jean", "101"}, 0, false},
		{"not a number", Form{"Dupont", "Jean", "thirty"}, 0, false},
		{"empty age", Form{"Dupont", "Jean", ""}, 0, false},
		{"empty last name", Form{"", "Jean", "30"}, 0, false},
		{"blank first name", Form{"Dupont", "  ", "30"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age, ok := page.ValidateForm(tt.form)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAge, age)
		})
	}
}

func TestAgeFieldValid(t *testing.T) {
	assert.True(t, AgeFieldValid("18"))
	assert.True(t, AgeFieldValid("100"))
	assert.False(t, AgeFieldValid("17"))
	assert.False(t, AgeFieldValid("101"))
	assert.False(t, AgeFieldValid("4a"))
	assert.False(t, AgeFieldValid(""))
}

func TestAdd_Success(t *testing.T) {
	page, api, view := setupPage(t)
	created := append(append([]domain.User{}, existing...), domain.User{ID: 3, LastName: "Durand", FirstName: "Paul", Age: 25})

	api.On("CreateUser", ctx, &domain.User{LastName: "Durand", FirstName: "Paul", Age: 25}).Return(true)
	api.On("ListUsers", ctx).Return(created)

	ok := page.Add(ctx, Form{LastName: "Durand", FirstName: "Paul", Age: "25"})

	assert.True(t, ok)
	assert.Equal(t, []string{MsgCreated}, view.messages)
	assert.Equal(t, created, view.users)
	assert.Equal(t, Form{}, view.fields)
	assert.Equal(t, FieldFirstName, view.focus)
	// validate -> call -> refresh -> clear
	assert.Equal(t, []string{"message", "users", "fields", "focus"}, view.events)
	api.AssertExpectations(t)
}

func TestAdd_InvalidInputSkipsBackend(t *testing.T) {
	page, api, view := setupPage(t)

	ok := page.Add(ctx, Form{LastName: "Durand", FirstName: "Paul", Age: "12"})

	assert.False(t, ok)
	assert.Equal(t, MsgInvalidInput, view.lastMessage())
	api.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "ListUsers", mock.Anything)
}

func TestAdd_BackendFailureKeepsForm(t *testing.T) {
	page, api, view := setupPage(t)
	api.On("CreateUser", ctx, mock.Anything).Return(false)

	ok := page.Add(ctx, Form{LastName: "Durand", FirstName: "Paul", Age: "25"})

	assert.False(t, ok)
	assert.Equal(t, []string{"message"}, view.events)
	assert.Equal(t, MsgCreateFailed, view.lastMessage())
	api.AssertNotCalled(t, "ListUsers", mock.Anything)
}

func TestSelect_FillsForm(t *testing.T) {
	page, api, view := setupPage(t)
	api.On("ListUsers", ctx).Return(existing)
	page.Load(ctx)

	assert.True(t, page.SelectByID(2))
	assert.Equal(t, Form{LastName: "Martin", FirstName: "Claire", Age: "42"}, view.fields)
	assert.Equal(t, int64(2), page.Selected().ID)

	assert.False(t, page.SelectByID(99))
	assert.Equal(t, int64(2), page.Selected().ID)
}

func TestUpdate(t *testing.T) {
	t.Run("requires selection", func(t *testing.T) {
		page, api, view := setupPage(t)

		assert.False(t, page.Update(ctx, Form{LastName: "Martin", FirstName: "Claire", Age: "43"}))
		assert.Equal(t, MsgSelectToUpdate, view.lastMessage())
		api.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("invalid input", func(t *testing.T) {
		page, api, view := setupPage(t)
		page.Select(existing[1])

		assert.False(t, page.Update(ctx, Form{LastName: "Martin", FirstName: "", Age: "43"}))
		assert.Equal(t, MsgInvalidInput, view.lastMessage())
		api.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		page, api, view := setupPage(t)
		page.Select(existing[1])

		api.On("UpdateUser", ctx, &domain.User{ID: 2, LastName: "Martin", FirstName: "Claire", Age: 43}).Return(true)
		api.On("ListUsers", ctx).Return(existing)

		assert.True(t, page.Update(ctx, Form{LastName: "Martin", FirstName: "Claire", Age: "43"}))
		assert.Equal(t, MsgUpdated, view.lastMessage())
		assert.Nil(t, page.Selected())
		assert.Equal(t, Form{}, view.fields)
		// The loaded row itself is left untouched until the reload.
		assert.Equal(t, 42, existing[1].Age)
		api.AssertExpectations(t)
	})

	t.Run("backend failure", func(t *testing.T) {
		page, api, view := setupPage(t)
		page.Select(existing[0])
		api.On("UpdateUser", ctx, mock.Anything).Return(false)

		assert.False(t, page.Update(ctx, Form{LastName: "Dupont", FirstName: "Jean", Age: "31"}))
		assert.Equal(t, MsgUpdateFailed, view.lastMessage())
		assert.NotNil(t, page.Selected())
	})
}

func TestDelete(t *testing.T) {
	t.Run("requires selection", func(t *testing.T) {
		page, api, view := setupPage(t)

		assert.False(t, page.Delete(ctx))
		assert.Equal(t, MsgSelectToDelete, view.lastMessage())
		api.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("success", func(t *testing.T) {
		page, api, view := setupPage(t)
		page.Select(existing[0])
		api.On("DeleteUser", ctx, int64(1)).Return(true)
		api.On("ListUsers", ctx).Return(existing[1:])

		assert.True(t, page.Delete(ctx))
		assert.Equal(t, MsgDeleted, view.lastMessage())
		assert.Equal(t, existing[1:], view.users)
		assert.Nil(t, page.Selected())
		api.AssertExpectations(t)
	})

	t.Run("backend failure", func(t *testing.T) {
		page, api, view := setupPage(t)
		page.Select(existing[0])
		api.On("DeleteUser", ctx, int64(1)).Return(false)

		assert.False(t, page.Delete(ctx))
		assert.Equal(t, MsgDeleteFailed, view.lastMessage())
	})
}

func TestClear(t *testing.T) {
	page, api, view := setupPage(t)
	page.Select(existing[0])
	api.On("ListUsers", ctx).Return(existing)

	page.Clear(ctx)

	assert.Nil(t, page.Selected())
	assert.Equal(t, Form{}, view.fields)
	assert.Equal(t, FieldFirstName, view.focus)
	assert.Equal(t, existing, view.users)
}
