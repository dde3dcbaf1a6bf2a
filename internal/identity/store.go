// Package identity mantém empresas e usuários de um perfil.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/kv"
	"github.com/gestaozabele/painelpregao/internal/util"
)

// Store aplica as regras de cadastro sobre as coleções users e companies.
type Store struct {
	kv     *kv.Adapter
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	observers []func(context.Context, Change)
}

func NewStore(adapter *kv.Adapter, logger zerolog.Logger) *Store {
	return &Store{
		kv:     adapter,
		logger: logger.With().Str("component", "identity").Logger(),
		now:    util.Now,
	}
}

// Observe registra callback chamado após alterações persistidas de usuário.
func (s *Store) Observe(fn func(context.Context, Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) loadUsers(ctx context.Context) ([]User, error) {
	var users []User
	if _, err := s.kv.Load(ctx, kv.KeyUsers, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].LegacyRequireChange {
			users[i].TemporaryPassword = true
			users[i].LegacyRequireChange = false
		}
	}
	return users, nil
}

func (s *Store) loadCompanies(ctx context.Context) ([]Company, error) {
	var companies []Company
	if _, err := s.kv.Load(ctx, kv.KeyCompanies, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

func emailTaken(users []User, email, exceptID string) bool {
	for _, u := range users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func findCompanyByCNPJ(companies []Company, cnpj string) (Company, bool) {
	digits := util.OnlyDigits(cnpj)
	for _, c := range companies {
		if c.CNPJ == cnpj || (digits != "" && util.OnlyDigits(c.CNPJ) == digits) {
			return c, true
		}
	}
	return Company{}, false
}

func indexOfUser(users []User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// RegisterCompanyAndAdmin cria empresa e administrador numa única gravação.
func (s *Store) RegisterCompanyAndAdmin(ctx context.Context, input RegisterCompanyInput) (*User, error) {
	input.CompanyName = strings.TrimSpace(input.CompanyName)
	input.CNPJ = strings.TrimSpace(input.CNPJ)
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	if input.CompanyName == "" || input.CNPJ == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	companies, err := s.loadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if emailTaken(users, input.Email, "") {
		return nil, ErrDuplicateEmail
	}
	if _, ok := findCompanyByCNPJ(companies, input.CNPJ); ok {
		return nil, ErrDuplicateCNPJ
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash senha: %w", err)
	}

	now := s.now()
	company := Company{
		ID:        uuid.NewString(),
		Name:      input.CompanyName,
		CNPJ:      input.CNPJ,
		CreatedAt: now,
	}
	user := User{
		ID:           uuid.NewString(),
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hash,
		Whatsapp:     strings.TrimSpace(input.Whatsapp),
		CompanyID:    company.ID,
		CompanyName:  company.Name,
		IsAdmin:      true,
		Role:         RoleGerente,
		CreatedAt:    now,
	}

	if err := s.kv.SaveAll(ctx, map[string]any{
		kv.KeyCompanies: append(companies, company),
		kv.KeyUsers:     append(users, user),
	}); err != nil {
		return nil, err
	}

	s.logger.Info().Str("company_id", company.ID).Str("user_id", user.ID).Msg("empresa cadastrada")
	return &user, nil
}

// RegisterEmployee cadastra funcionário com senha temporária.
func (s *Store) RegisterEmployee(ctx context.Context, input RegisterEmployeeInput) (*User, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	if input.CompanyID == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	companies, err := s.loadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	var company *Company
	for i := range companies {
		if companies[i].ID == input.CompanyID {
			company = &companies[i]
			break
		}
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if emailTaken(users, input.Email, "") {
		return nil, ErrDuplicateEmail
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash senha: %w", err)
	}

	user := User{
		ID:                uuid.NewString(),
		FullName:          input.FullName,
		Email:             input.Email,
		PasswordHash:      hash,
		Whatsapp:          strings.TrimSpace(input.Whatsapp),
		CompanyID:         company.ID,
		CompanyName:       company.Name,
		IsAdmin:           false,
		Role:              RoleFuncionario,
		TemporaryPassword: true,
		CreatedAt:         s.now(),
	}

	if err := s.kv.Save(ctx, kv.KeyUsers, append(users, user)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("company_id", company.ID).Str("user_id", user.ID).Msg("funcionário cadastrado")
	return &user, nil
}

// Login confere credenciais. Senhas legadas em texto puro ou hashes com parâmetros antigos
// são regravados no primeiro acesso.
func (s *Store) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, u := range users {
		if u.Email == email {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	user := users[idx]

	if !passwordMatches(user, password) {
		return nil, ErrInvalidPassword
	}

	if user.PasswordHash == "" || auth.NeedsRehash(user.PasswordHash) {
		hash, err := auth.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("hash senha: %w", err)
		}
		user.PasswordHash = hash
		user.LegacyPassword = ""
		users[idx] = user
		if err := s.kv.Save(ctx, kv.KeyUsers, users); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("migração de senha não persistida")
		}
	}

	return &LoginResult{User: user, RequirePasswordChange: user.TemporaryPassword}, nil
}

// UpdatePassword troca a senha e marca como permanente.
func (s *Store) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	return s.mutate(ctx, func(users []User) (int, error) {
		idx := indexOfUser(users, userID)
		if idx < 0 {
			return -1, ErrUserNotFound
		}
		hash, err := auth.Hash(newPassword)
		if err != nil {
			return -1, fmt.Errorf("hash senha: %w", err)
		}
		users[idx].PasswordHash = hash
		users[idx].LegacyPassword = ""
		users[idx].TemporaryPassword = false
		return idx, nil
	})
}

// ChangePassword confere a senha atual antes de trocar.
func (s *Store) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return s.mutate(ctx, func(users []User) (int, error) {
		idx := indexOfUser(users, userID)
		if idx < 0 {
			return -1, ErrUserNotFound
		}
		if !passwordMatches(users[idx], currentPassword) {
			return -1, ErrInvalidPassword
		}
		hash, err := auth.Hash(newPassword)
		if err != nil {
			return -1, fmt.Errorf("hash senha: %w", err)
		}
		users[idx].PasswordHash = hash
		users[idx].LegacyPassword = ""
		users[idx].TemporaryPassword = false
		return idx, nil
	})
}

func passwordMatches(u User, password string) bool {
	if u.PasswordHash == "" {
		return u.LegacyPassword != "" && u.LegacyPassword == password
	}
	ok, err := auth.Verify(password, u.PasswordHash)
	if err != nil {
		return false
	}
	return ok
}

// UpdatePasswordByEmail é usado pela recuperação de senha.
func (s *Store) UpdatePasswordByEmail(ctx context.Context, email, newPassword string) error {
	email = strings.TrimSpace(email)
	return s.mutate(ctx, func(users []User) (int, error) {
		idx := -1
		for i, u := range users {
			if u.Email == email {
				idx = i
				break
			}
		}
		if idx < 0 {
			return -1, ErrUserNotFound
		}
		hash, err := auth.Hash(newPassword)
		if err != nil {
			return -1, fmt.Errorf("hash senha: %w", err)
		}
		users[idx].PasswordHash = hash
		users[idx].LegacyPassword = ""
		users[idx].TemporaryPassword = false
		return idx, nil
	})
}

// UpdateUser aplica alteração parcial.
func (s *Store) UpdateUser(ctx context.Context, userID string, patch UserPatch) (*User, error) {
	var updated User
	err := s.mutate(ctx, func(users []User) (int, error) {
		idx := indexOfUser(users, userID)
		if idx < 0 {
			return -1, ErrUserNotFound
		}
		u := users[idx]
		if patch.Email != nil {
			email := strings.TrimSpace(*patch.Email)
			if email == "" {
				return -1, ErrMissingField
			}
			if emailTaken(users, email, u.ID) {
				return -1, ErrDuplicateEmail
			}
			u.Email = email
		}
		if patch.FullName != nil {
			u.FullName = strings.TrimSpace(*patch.FullName)
		}
		if patch.Whatsapp != nil {
			u.Whatsapp = strings.TrimSpace(*patch.Whatsapp)
		}
		if patch.IsAdmin != nil {
			u.IsAdmin = *patch.IsAdmin
			u.Role = RoleFor(u.IsAdmin)
		}
		if patch.Password != nil && *patch.Password != "" {
			hash, err := auth.Hash(*patch.Password)
			if err != nil {
				return -1, fmt.Errorf("hash senha: %w", err)
			}
			u.PasswordHash = hash
			u.LegacyPassword = ""
		}
		if patch.TemporaryPassword != nil {
			u.TemporaryPassword = *patch.TemporaryPassword
		}
		users[idx] = u
		updated = u
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser remove o usuário sem cascata.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	users, err := s.loadUsers(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	idx := indexOfUser(users, userID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUserNotFound
	}
	removed := users[idx]
	users = append(users[:idx], users[idx+1:]...)
	if err := s.kv.Save(ctx, kv.KeyUsers, users); err != nil {
		s.mu.Unlock()
		return err
	}
	observers := append([]func(context.Context, Change){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, Change{Kind: ChangeDeleted, User: removed})
	}
	return nil
}

// mutate serializa leitura-alteração-gravação de users e notifica observadores fora do lock.
func (s *Store) mutate(ctx context.Context, fn func(users []User) (int, error)) error {
	s.mu.Lock()
	users, err := s.loadUsers(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	idx, err := fn(users)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.kv.Save(ctx, kv.KeyUsers, users); err != nil {
		s.mu.Unlock()
		return err
	}
	changed := users[idx]
	observers := append([]func(context.Context, Change){}, s.observers...)
	s.mu.Unlock()

	for _, obs := range observers {
		obs(ctx, Change{Kind: ChangeUpdated, User: changed})
	}
	return nil
}

// GetUser busca usuário por id.
func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfUser(users, userID)
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	return &users[idx], nil
}

// EmailExists informa se algum usuário usa o e-mail.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return false, err
	}
	return emailTaken(users, strings.TrimSpace(email), ""), nil
}

// ListUsers devolve todos os usuários do perfil.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	return s.loadUsers(ctx)
}

// GetUsersByCompany devolve os usuários vinculados à empresa.
func (s *Store) GetUsersByCompany(ctx context.Context, companyID string) ([]User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0)
	for _, u := range users {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

// GetCompanyByCNPJ compara apenas os dígitos do CNPJ.
func (s *Store) GetCompanyByCNPJ(ctx context.Context, cnpj string) (*Company, error) {
	companies, err := s.loadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	company, ok := findCompanyByCNPJ(companies, strings.TrimSpace(cnpj))
	if !ok {
		return nil, ErrCompanyNotFound
	}
	return &company, nil
}

// GetCompany busca empresa por id.
func (s *Store) GetCompany(ctx context.Context, companyID string) (*Company, error) {
	companies, err := s.loadCompanies(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range companies {
		if c.ID == companyID {
			return &c, nil
		}
	}
	return nil, ErrCompanyNotFound
}

// ListCompanies devolve todas as empresas do perfil.
func (s *Store) ListCompanies(ctx context.Context) ([]Company, error) {
	return s.loadCompanies(ctx)
}
