package meeting

import (
	"time"

	"github.com/google/uuid"
)

// Session is a follow-up meeting session recorded for a workspace. Rows are
// always read and written through a tenant-scoped accessor, so a Session can
// only ever surface inside the workspace that created it.
type Session struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	TenantID  uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	ChannelID string     `db:"channel_id" json:"channel_id"`
	Title     string     `db:"title" json:"title"`
	Notes     string     `db:"notes" json:"notes"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

func (s Session) GetTenantID() uuid.UUID { return s.TenantID }
