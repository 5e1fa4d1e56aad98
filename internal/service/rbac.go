package service

import (
	"context"
	"errors"

	"github.com/diegocamara89/dcyber-bot/internal/usuarios"
)

var (
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("acesso negado")
	// ErrPendente indica cadastro ainda não aprovado ou desativado.
	ErrPendente = errors.New("cadastro pendente de aprovação")
)

// UserLookup resolve o papel atual de um usuário.
type UserLookup interface {
	Get(ctx context.Context, id int64) (*usuarios.Usuario, error)
}

// RBACService opera as verificações de papel antes de cada ação.
type RBACService struct {
	users UserLookup
}

// NewRBACService cria nova instância.
func NewRBACService(users UserLookup) *RBACService {
	return &RBACService{users: users}
}

// RequireApproved libera admins e usuários ativos.
func (s *RBACService) RequireApproved(ctx context.Context, userID int64) (*usuarios.Usuario, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, usuarios.ErrNotFound) {
			return nil, ErrPendente
		}
		return nil, err
	}
	if !u.Aprovado() {
		return u, ErrPendente
	}
	return u, nil
}

// RequireAdmin libera apenas o nível admin.
func (s *RBACService) RequireAdmin(ctx context.Context, userID int64) (*usuarios.Usuario, error) {
	u, err := s.RequireApproved(ctx, userID)
	if err != nil {
		return u, err
	}
	if !u.Admin() {
		return u, ErrForbidden
	}
	return u, nil
}

// RequireSigner libera o dpc ativo e admins.
func (s *RBACService) RequireSigner(ctx context.Context, userID int64) (*usuarios.Usuario, error) {
	u, err := s.RequireApproved(ctx, userID)
	if err != nil {
		return u, err
	}
	if !u.PodeAssinar() {
		return u, ErrForbidden
	}
	return u, nil
}
