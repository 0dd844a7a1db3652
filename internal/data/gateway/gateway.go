package gateway

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/saarthak-backend/internal/platform/ctxutil"
	"github.com/yungbote/saarthak-backend/internal/platform/dbctx"
	"github.com/yungbote/saarthak-backend/internal/platform/logger"
	"github.com/yungbote/saarthak-backend/internal/platform/objectstore"
)

type Credentials struct {
	Email    string
	Password string
}

// Session is the authenticated administrator as seen by the backend.
type Session struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"is_admin"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
}

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*Session, error)
}

// Gateway is the only component that talks to the row store, the object
// store and the auth backend. It never retries and never validates input
// beyond table and column whitelists.
type Gateway interface {
	Authenticate(ctx context.Context, creds Credentials) (*Session, error)
	CurrentSession(ctx context.Context) *Session
	Query(ctx context.Context, table Table, filter Filter, order []Order, dest any) error
	Count(ctx context.Context, table Table, filter Filter) (int64, error)
	Get(ctx context.Context, table Table, id uuid.UUID, dest any) error
	Insert(ctx context.Context, table Table, row any) error
	Update(ctx context.Context, table Table, id uuid.UUID, patch map[string]any, dest any) error
	Delete(ctx context.Context, table Table, id uuid.UUID) error
	UploadFile(ctx context.Context, bucket objectstore.Bucket, path string, file io.Reader) (string, error)
}

type gateway struct {
	db    *gorm.DB
	store objectstore.Store
	auth  Authenticator
	log   *logger.Logger
	now   func() time.Time
}

func New(log *logger.Logger, db *gorm.DB, store objectstore.Store, auth Authenticator) Gateway {
	return &gateway{
		db:    db,
		store: store,
		auth:  auth,
		log:   log.With("service", "Gateway"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (g *gateway) conn(ctx context.Context) *gorm.DB {
	return dbctx.Context{Ctx: ctx}.Conn(g.db)
}

func (g *gateway) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	if g.auth == nil {
		return nil, &Error{Kind: KindUnknown, Op: "authenticate", Err: fmt.Errorf("no authenticator configured")}
	}
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	sess, err := g.auth.Authenticate(ctx, creds)
	if err != nil {
		return nil, wrap("authenticate", "", err)
	}
	return sess, nil
}

// CurrentSession reads the caller already resolved by the auth middleware.
func (g *gateway) CurrentSession(ctx context.Context) *Session {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil
	}
	return &Session{UserID: rd.UserID, Email: rd.Email, IsAdmin: rd.IsAdmin, AccessToken: rd.TokenString}
}

func (g *gateway) scoped(ctx context.Context, table Table, filter Filter) (*gorm.DB, tableSpec, error) {
	spec, err := lookup(table)
	if err != nil {
		return nil, spec, err
	}
	preds, err := spec.predicates(filter)
	if err != nil {
		return nil, spec, err
	}
	q := g.conn(ctx).Model(spec.model())
	for _, p := range preds {
		if p.op == "IN" {
			q = q.Where(p.column+" IN ?", p.value)
			continue
		}
		q = q.Where(p.column+" "+p.op+" ?", p.value)
	}
	return q, spec, nil
}

func (g *gateway) Query(ctx context.Context, table Table, filter Filter, order []Order, dest any) error {
	q, spec, err := g.scoped(ctx, table, filter)
	if err != nil {
		return wrap("query", string(table), err)
	}
	clauses, err := spec.orderClauses(order)
	if err != nil {
		return wrap("query", string(table), err)
	}
	for _, c := range clauses {
		q = q.Order(c)
	}
	if err := q.Find(dest).Error; err != nil {
		g.log.Warn("Query failed", append(ctxutil.LogFields(ctx), "table", table, "error", err)...)
		return wrap("query", string(table), err)
	}
	return nil
}

func (g *gateway) Count(ctx context.Context, table Table, filter Filter) (int64, error) {
	q, _, err := g.scoped(ctx, table, filter)
	if err != nil {
		return 0, wrap("count", string(table), err)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, wrap("count", string(table), err)
	}
	return n, nil
}

func (g *gateway) Get(ctx context.Context, table Table, id uuid.UUID, dest any) error {
	if _, err := lookup(table); err != nil {
		return wrap("get", string(table), err)
	}
	if err := g.conn(ctx).Where("id = ?", id).First(dest).Error; err != nil {
		return wrap("get", string(table), err)
	}
	return nil
}

func (g *gateway) Insert(ctx context.Context, table Table, row any) error {
	spec, err := lookup(table)
	if err != nil {
		return wrap("insert", string(table), err)
	}
	if err := spec.checkRow(row); err != nil {
		return wrap("insert", string(table), err)
	}
	if err := g.conn(ctx).Create(row).Error; err != nil {
		g.log.Warn("Insert failed", append(ctxutil.LogFields(ctx), "table", table, "error", err)...)
		return wrap("insert", string(table), err)
	}
	return nil
}

// Update applies patch to the row with id and reloads it into dest when dest
// is non-nil. Concurrent updates are last-write-wins.
func (g *gateway) Update(ctx context.Context, table Table, id uuid.UUID, patch map[string]any, dest any) error {
	spec, err := lookup(table)
	if err != nil {
		return wrap("update", string(table), err)
	}
	if err := spec.checkPatch(patch); err != nil {
		return wrap("update", string(table), err)
	}
	cols := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		cols[k] = v
	}
	if table != TableContacts {
		cols["updated_at"] = g.now()
	}

	res := g.conn(ctx).Model(spec.model()).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		g.log.Warn("Update failed", append(ctxutil.LogFields(ctx), "table", table, "id", id, "error", res.Error)...)
		return wrap("update", string(table), res.Error)
	}
	if res.RowsAffected == 0 {
		// Some drivers count only changed rows, so an unchanged match is
		// confirmed before reporting not found.
		var n int64
		if err := g.conn(ctx).Model(spec.model()).Where("id = ?", id).Count(&n).Error; err != nil {
			return wrap("update", string(table), err)
		}
		if n == 0 {
			return wrap("update", string(table), gorm.ErrRecordNotFound)
		}
	}
	if dest == nil {
		return nil
	}
	if err := g.conn(ctx).Where("id = ?", id).First(dest).Error; err != nil {
		return wrap("update", string(table), err)
	}
	return nil
}

func (g *gateway) Delete(ctx context.Context, table Table, id uuid.UUID) error {
	spec, err := lookup(table)
	if err != nil {
		return wrap("delete", string(table), err)
	}
	res := g.conn(ctx).Where("id = ?", id).Delete(spec.model())
	if res.Error != nil {
		g.log.Warn("Delete failed", append(ctxutil.LogFields(ctx), "table", table, "id", id, "error", res.Error)...)
		return wrap("delete", string(table), res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("delete", string(table), gorm.ErrRecordNotFound)
	}
	return nil
}

// UploadFile stores the object and returns its public URL.
func (g *gateway) UploadFile(ctx context.Context, bucket objectstore.Bucket, path string, file io.Reader) (string, error) {
	if g.store == nil {
		return "", &Error{Kind: KindUnknown, Op: "upload", Table: string(bucket), Err: fmt.Errorf("no object store configured")}
	}
	if err := g.store.UploadFile(ctx, bucket, path, file); err != nil {
		g.log.Warn("Upload failed", append(ctxutil.LogFields(ctx), "bucket", bucket, "path", path, "error", err)...)
		return "", wrap("upload", string(bucket), err)
	}
	return g.store.GetPublicURL(bucket, path), nil
}
