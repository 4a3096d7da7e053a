package shell

import (
	"fmt"
	"io"
	"text/tabwriter"

	domain "userdesk/internal/domain/user"
	"userdesk/internal/presenter"
)

// terminalView draws the user form as lines of text.
type terminalView struct {
	out      io.Writer
	echoForm bool

	fields presenter.Form
	focus  presenter.Field
}

var _ presenter.View = (*terminalView)(nil)

func newTerminalView(out io.Writer, echoForm bool) *terminalView {
	return &terminalView{out: out, echoForm: echoForm}
}

func (v *terminalView) ShowUsers(users []domain.User) {
	if len(users) == 0 {
		fmt.Fprintln(v.out, "No users.")
		return
	}

	tw := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLAST NAME\tFIRST NAME\tAGE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", u.ID, u.LastName, u.FirstName, u.Age)
	}
	_ = tw.Flush()
}

func (v *terminalView) ShowMessage(msg string) {
	fmt.Fprintln(v.out, msg)
}

func (v *terminalView) SetFields(f presenter.Form) {
	v.fields = f
	if v.echoForm && f != (presenter.Form{}) {
		v.printForm()
	}
}

func (v *terminalView) Focus(field presenter.Field) {
	v.focus = field
}

func (v *terminalView) printForm() {
	fmt.Fprintf(v.out, "Last name: %s | First name: %s | Age: %s\n", v.fields.LastName, v.fields.FirstName, v.fields.Age)
}
