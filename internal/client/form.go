package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	domain "userdesk/internal/domain/user"
	apperrors "userdesk/pkg/errors"
)

var (
	errEmptyBody      = errors.New("empty response body")
	errMissingSuccess = errors.New(`response has no "success" key`)
)

// EncodeForm returns the form fields the backend expects for u. The id is
// only sent for updates.
func EncodeForm(u *domain.User, withID bool) url.Values {
	form := url.Values{
		"nom":    {u.LastName},
		"prenom": {u.FirstName},
		"age":    {strconv.Itoa(u.Age)},
	}
	if withID {
		form.Set("id", strconv.FormatInt(u.ID, 10))
	}
	return form
}

// decodeSuccess reads the success flag of a write response. Only a JSON
// boolean true counts as success; other keys, such as an error message,
// are ignored.
func decodeSuccess(op string, body []byte) (bool, error) {
	if len(body) == 0 {
		return false, apperrors.NewDecodeError(op, errEmptyBody)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return false, apperrors.NewDecodeError(op, err)
	}

	v, ok := result["success"]
	if !ok {
		return false, apperrors.NewDecodeError(op, errMissingSuccess)
	}

	success, ok := v.(bool)
	return ok && success, nil
}

// flexInt decodes a JSON number or a string holding one. PHP backends built
// on mysqli return every column as a string, so "id":"1" must read as 1.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	text := string(b)
	if text == "null" {
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", b)
	}
	*n = flexInt(v)
	return nil
}

// wireUser is a user as the backend serializes it.
type wireUser struct {
	ID        flexInt `json:"id"`
	LastName  string  `json:"nom"`
	FirstName string  `json:"prenom"`
	Age       flexInt `json:"age"`
}

func (w wireUser) toDomain() domain.User {
	return domain.User{
		ID:        int64(w.ID),
		LastName:  w.LastName,
		FirstName: w.FirstName,
		Age:       int(w.Age),
	}
}

// decodeUsers reads a list.php body. A JSON null yields an empty slice.
func decodeUsers(op string, body []byte) ([]domain.User, error) {
	var wire []wireUser
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, apperrors.NewDecodeError(op, err)
	}

	users := make([]domain.User, 0, len(wire))
	for _, w := range wire {
		users = append(users, w.toDomain())
	}
	return users, nil
}

// decodeUser reads a details.php body. A JSON null yields nil.
func decodeUser(op string, body []byte) (*domain.User, error) {
	var wire *wireUser
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, apperrors.NewDecodeError(op, err)
	}
	if wire == nil {
		return nil, nil
	}

	u := wire.toDomain()
	return &u, nil
}
