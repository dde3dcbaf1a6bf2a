package identity

import (
	"errors"
	"time"
)

var (
	ErrDuplicateEmail  = errors.New("e-mail já cadastrado")
	ErrDuplicateCNPJ   = errors.New("CNPJ já cadastrado")
	ErrCompanyNotFound = errors.New("empresa não encontrada")
	ErrUserNotFound    = errors.New("usuário não encontrado")
	ErrInvalidPassword = errors.New("senha incorreta")
	ErrMissingField    = errors.New("campos obrigatórios ausentes")
)

// Role deriva de IsAdmin.
type Role string

const (
	RoleGerente     Role = "gerente"
	RoleFuncionario Role = "funcionario"
)

// RoleFor devolve o papel correspondente ao flag de administrador.
func RoleFor(isAdmin bool) Role {
	if isAdmin {
		return RoleGerente
	}
	return RoleFuncionario
}

// User representa uma conta de acesso ao painel.
type User struct {
	ID                string    `json:"id"`
	FullName          string    `json:"fullName"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"passwordHash,omitempty"`
	LegacyPassword    string    `json:"password,omitempty"`
	Whatsapp          string    `json:"whatsapp"`
	CompanyID         string    `json:"companyId"`
	CompanyName       string    `json:"companyName"`
	IsAdmin           bool      `json:"isAdmin"`
	Role              Role      `json:"role"`
	TemporaryPassword bool      `json:"temporaryPassword"`
	CreatedAt         time.Time `json:"createdAt"`

	// Nome antigo de TemporaryPassword; lido e incorporado na carga.
	LegacyRequireChange bool `json:"requirePasswordChange,omitempty"`
}

// Public devolve cópia sem credenciais.
func (u User) Public() User {
	u.PasswordHash = ""
	u.LegacyPassword = ""
	u.LegacyRequireChange = false
	return u
}

// Company é uma empresa cadastrada; funcionários são derivados de User.CompanyID.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterCompanyInput reúne dados da empresa e do administrador inicial.
type RegisterCompanyInput struct {
	CompanyName string
	CNPJ        string
	FullName    string
	Email       string
	Password    string
	Whatsapp    string
}

// RegisterEmployeeInput cadastra funcionário em empresa existente.
type RegisterEmployeeInput struct {
	CompanyID string
	FullName  string
	Email     string
	Password  string
	Whatsapp  string
}

// LoginResult indica se a senha temporária precisa ser trocada.
type LoginResult struct {
	User                  User
	RequirePasswordChange bool
}

// UserPatch altera apenas os campos não nulos.
type UserPatch struct {
	FullName          *string
	Email             *string
	Whatsapp          *string
	Password          *string
	IsAdmin           *bool
	TemporaryPassword *bool
}

type ChangeKind string

const (
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change notifica observadores sobre alterações de usuário.
type Change struct {
	Kind ChangeKind
	User User
}
