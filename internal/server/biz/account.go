package biz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/storage"
	"github.com/looplj/cellhub/internal/token"
)

type AccountServiceParams struct {
	fx.In

	Store  storage.Store
	Auth   *AuthService
	Config Config
}

// AccountService manages cell accounts and issues tokens for password
// sign-in. The issued token carries the URLs of the roles linked to the
// account, which is what the ACL evaluator grants against.
type AccountService struct {
	store    storage.Store
	auth     *AuthService
	unitBase string
}

func NewAccountService(params AccountServiceParams) *AccountService {
	return &AccountService{
		store:    params.Store,
		auth:     params.Auth,
		unitBase: params.Config.Unit.BaseURL,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, cell *graph.Cell, name, password string) (*graph.Account, error) {
	if name == "" || password == "" {
		return nil, errcode.RequestMalformed.WithParams("Name and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &graph.Account{
		ID:           uuid.NewString(),
		CellID:       cell.ID,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, cell *graph.Cell, name string) (*graph.Account, error) {
	account, err := s.store.GetAccount(ctx, cell.ID, name)
	if err != nil {
		return nil, err
	}

	if account == nil {
		return nil, errcode.EntityNotFound.WithParams("Account", name)
	}

	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, cell *graph.Cell) ([]*graph.Account, error) {
	return s.store.ListAccounts(ctx, cell.ID)
}

func (s *AccountService) DeleteAccount(ctx context.Context, cell *graph.Cell, name string) error {
	if _, err := s.GetAccount(ctx, cell, name); err != nil {
		return err
	}

	return s.store.DeleteAccount(ctx, cell.ID, name)
}

// LinkRole grants the role to the account.
func (s *AccountService) LinkRole(ctx context.Context, cell *graph.Cell, accountName, roleBoxName, roleName string) error {
	account, err := s.GetAccount(ctx, cell, accountName)
	if err != nil {
		return err
	}

	role, err := s.store.GetRole(ctx, cell.ID, roleBoxName, roleName)
	if err != nil {
		return err
	}

	if role == nil {
		return errcode.EntityNotFound.WithParams("Role", roleName)
	}

	return s.store.UpsertLink(ctx, graph.Link{
		CellID: cell.ID,
		Kind:   graph.LinkAccountRole,
		FromID: account.ID,
		ToID:   role.ID,
	})
}

// UnlinkRole revokes the role; an absent grant is not an error.
func (s *AccountService) UnlinkRole(ctx context.Context, cell *graph.Cell, accountName, roleBoxName, roleName string) error {
	account, err := s.GetAccount(ctx, cell, accountName)
	if err != nil {
		return err
	}

	role, err := s.store.GetRole(ctx, cell.ID, roleBoxName, roleName)
	if err != nil {
		return err
	}

	if role == nil {
		return errcode.EntityNotFound.WithParams("Role", roleName)
	}

	_, err = s.store.DeleteLink(ctx, graph.Link{
		CellID: cell.ID,
		Kind:   graph.LinkAccountRole,
		FromID: account.ID,
		ToID:   role.ID,
	})

	return err
}

// SignIn checks the password and issues a token carrying the account's
// role URLs. A wrong name and a wrong password fail identically.
func (s *AccountService) SignIn(ctx context.Context, cell *graph.Cell, name, password string) (string, error) {
	account, err := s.store.GetAccount(ctx, cell.ID, name)
	if err != nil {
		return "", err
	}

	if account == nil {
		return "", errcode.AuthnRequired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", errcode.AuthnRequired
	}

	roles, err := s.accountRoleURLs(ctx, cell, account)
	if err != nil {
		return "", err
	}

	cellURL := cell.URL(s.unitBase)

	return s.auth.signer.SignToken(&token.Claims{
		Issuer:   cellURL,
		Subject:  cellURL + "#" + account.Name,
		Audience: cellURL,
		Roles:    roles,
	})
}

func (s *AccountService) accountRoleURLs(ctx context.Context, cell *graph.Cell, account *graph.Account) ([]string, error) {
	links, err := s.store.ListLinks(ctx, cell.ID, graph.LinkAccountRole, account.ID)
	if err != nil {
		return nil, err
	}

	if len(links) == 0 {
		return nil, nil
	}

	all, err := s.store.ListRoles(ctx, cell.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*graph.Role, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}

	cellURL := cell.URL(s.unitBase)

	var urls []string

	for _, l := range links {
		if r, ok := byID[l.ToID]; ok {
			urls = append(urls, r.URL(cellURL))
		}
	}

	return urls, nil
}
