package user

// Age bounds accepted by the user form and the backend.
const (
	MinAge = 18
	MaxAge = 100
)

// User represents a user entity in the system.
// JSON and form field names follow the backend contract: "nom" holds the
// last name and "prenom" the first name.
type User struct {
	ID        int64  `json:"id" form:"id"`         // ID is assigned by the server, > 0 once persisted
	LastName  string `json:"nom" form:"nom"`       // LastName is the family name
	FirstName string `json:"prenom" form:"prenom"` // FirstName is the given name
	Age       int    `json:"age" form:"age"`       // Age in years
}
