package member

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

// UseCase exposes the read-only member directory used to pick assignees and collaborators.
type UseCase struct {
	members repository.MemberDirectory
	logger  *zap.Logger
}

func New(members repository.MemberDirectory, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{members: members, logger: logger}
}

func (uc *UseCase) ListMembers(ctx context.Context) ([]domain.Member, error) {
	members, err := uc.members.List(ctx)
	if err != nil {
		return nil, domain.Unavailable("failed to list members", err)
	}
	if members == nil {
		members = []domain.Member{}
	}
	return members, nil
}

func (uc *UseCase) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrEmptyMemberID
	}
	member, err := uc.members.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Unavailable("failed to load member", err)
	}
	return member, nil
}
