package importer

import (
	"context"
	"regexp"

	"paginaflex/internal/domain/accounts"
	"paginaflex/internal/domain/imports"
)

type ClientStore interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpsertClient(ctx context.Context, in accounts.ClientUpsert) (*accounts.User, bool, error)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ClientImporter upserts client accounts and their profiles by username.
// Passwords of existing accounts are only replaced when UpdatePasswords is
// set.
type ClientImporter struct {
	store           ClientStore
	UpdatePasswords bool
}

func NewClientImporter(store ClientStore, updatePasswords bool) *ClientImporter {
	return &ClientImporter{store: store, UpdatePasswords: updatePasswords}
}

func (*ClientImporter) Kind() imports.Kind { return imports.KindClients }

func (*ClientImporter) RequiredColumns() []string {
	return []string{"Usuario", "Nombre"}
}

func (ci *ClientImporter) ProcessRow(ctx context.Context, row Row, dryRun bool) (Action, error) {
	username := row.Value("Usuario", "")
	if username == "" {
		return "", required("Usuario")
	}
	name := row.Value("Nombre", "")
	if name == "" {
		return "", required("Nombre")
	}

	email := row.Value("Email", "")
	if email != "" && !emailPattern.MatchString(email) {
		return "", rowErrorf("Email", email, "invalid email: %s", email)
	}

	in := accounts.ClientUpsert{
		Username:       username,
		Email:          email,
		Password:       row.Value("Contraseña", ""),
		UpdatePassword: ci.UpdatePasswords,
		Profile: accounts.ClientProfile{
			Name:         name,
			Contact:      row.Value("Contacto", ""),
			ClientType:   row.Value("Tipo de cliente", ""),
			Province:     row.Value("Provincia", ""),
			Address:      row.Value("Domicilio", ""),
			Phones:       row.Value("Telefonos", ""),
			TaxID:        row.Value("CUIT/DNI", ""),
			Discount:     NormalizeDiscount(row.Value("Descuento", "0")),
			TaxCondition: accounts.ParseTaxCondition(row.Value("Cond.IVA", "CF")),
		},
	}

	if dryRun {
		exists, err := ci.store.UsernameExists(ctx, username)
		if err != nil {
			return "", err
		}
		return upsertAction(!exists), nil
	}

	_, created, err := ci.store.UpsertClient(ctx, in)
	if err != nil {
		return "", err
	}
	return upsertAction(created), nil
}
