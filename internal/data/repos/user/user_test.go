package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/saarthak-backend/internal/data/testutil"
	types "github.com/yungbote/saarthak-backend/internal/domain/user"
	"github.com/yungbote/saarthak-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	created, err := repo.Create(dbc, []*types.User{
		{Email: "userrepo@example.com", Password: "pw", FullName: "Asha Rao"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: expected 1 user with id, got %+v", created)
	}
	if created[0].IsAdmin {
		t.Fatalf("Create: new users must not be admin")
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil || len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: err=%v result=%+v", err, gotByIDs)
	}

	gotByEmails, err := repo.GetByEmails(dbc, []string{created[0].Email})
	if err != nil || len(gotByEmails) != 1 {
		t.Fatalf("GetByEmails: err=%v result=%+v", err, gotByEmails)
	}

	if exists, err := repo.EmailExists(dbc, created[0].Email); err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	if exists, err := repo.EmailExists(dbc, "does-not-exist@example.com"); err != nil || exists {
		t.Fatalf("EmailExists (missing): exists=%v err=%v", exists, err)
	}

	if err := repo.SetAdmin(dbc, created[0].ID, true); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	if err := repo.UpdatePassword(dbc, created[0].ID, "hash-2"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	reloaded, _ := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if !reloaded[0].IsAdmin || reloaded[0].Password != "hash-2" {
		t.Fatalf("updates not persisted: %+v", reloaded[0])
	}

	if err := repo.SetAdmin(dbc, uuid.New(), true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("SetAdmin (missing): want ErrRecordNotFound got=%v", err)
	}
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	if _, err := repo.Create(dbc, []*types.User{{Email: "dup@example.com", Password: "pw", FullName: "A"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Create(dbc, []*types.User{{Email: "dup@example.com", Password: "pw", FullName: "B"}})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("want ErrDuplicatedKey got=%v", err)
	}
}
