package bookstore

import "github.com/beyondbrewing/bookstore/auth"

// Operation names a privilege-gated engine call.
type Operation string

const (
	OpSearch         Operation = "search"
	OpPurchase       Operation = "purchase"
	OpSelect         Operation = "select"
	OpModify         Operation = "modify"
	OpImport         Operation = "import"
	OpAddBook        Operation = "add_book"
	OpShowFinance    Operation = "show_finance"
	OpAddUser        Operation = "add_user"
	OpChangePassword Operation = "change_password"
	OpDeleteUser     Operation = "delete_user"
	OpSetPrivilege   Operation = "set_privilege"
	OpVerify         Operation = "verify"
	OpStats          Operation = "stats"
)

// Policy maps each operation to the lowest privilege allowed to run it.
// Operations missing from the map are admin-only.
type Policy map[Operation]auth.Privilege

func DefaultPolicy() Policy {
	return Policy{
		OpSearch:         auth.ReadOnly,
		OpPurchase:       auth.ReadOnly,
		OpChangePassword: auth.ReadOnly,
		OpSelect:         auth.Staff,
		OpModify:         auth.Staff,
		OpImport:         auth.Staff,
		OpAddBook:        auth.Staff,
		OpShowFinance:    auth.Staff,
		OpAddUser:        auth.Staff,
		OpStats:          auth.Staff,
		OpDeleteUser:     auth.Admin,
		OpSetPrivilege:   auth.Admin,
		OpVerify:         auth.Admin,
	}
}

func (p Policy) allows(op Operation, priv auth.Privilege) bool {
	need, ok := p[op]
	if !ok {
		need = auth.Admin
	}
	return priv >= need
}

// clone copies p so later edits by the caller do not leak in.
func (p Policy) clone() Policy {
	out := make(Policy, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
