package user

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	LastName  string `validate:"required,max=100"`
	FirstName string `validate:"required,max=100"`
	Age       int    `validate:"min=18,max=100"`
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	ID int64
}

// UpdateUserRequest represents the request payload for updating an existing user.
type UpdateUserRequest struct {
	ID        int64  `validate:"gt=0"`
	LastName  string `validate:"required,max=100"`
	FirstName string `validate:"required,max=100"`
	Age       int    `validate:"min=18,max=100"`
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	ID int64
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        int64
	LastName  string
	FirstName string
	Age       int
}
