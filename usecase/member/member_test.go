package member

import (
	"context"
	"errors"
	"testing"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository/memory"
)

func TestUseCase(t *testing.T) {
	uc := New(memory.NewMemberDirectory(
		domain.Member{ID: "m1", Name: "Ada"},
		domain.Member{ID: "m2", Name: "Linus"},
	), nil)
	ctx := context.Background()

	members, err := uc.ListMembers(ctx)
	if err != nil || len(members) != 2 {
		t.Fatalf("ListMembers = %v, %v", members, err)
	}

	tests := []struct {
		id      string
		wantErr error
	}{
		{id: "m2"},
		{id: " ", wantErr: domain.ErrEmptyMemberID},
		{id: "nobody", wantErr: domain.ErrMemberNotFound},
	}
	for _, tt := range tests {
		m, err := uc.GetMember(ctx, tt.id)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetMember(%q): expected %v, got %v", tt.id, tt.wantErr, err)
			}
			continue
		}
		if err != nil || m.Name != "Linus" {
			t.Errorf("GetMember(%q) = %+v, %v", tt.id, m, err)
		}
	}
}
