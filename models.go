package blog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. The valid-token set and the post visit
// history live in child tables so mutations stay single-row atomic.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string       `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName   string       `bun:"display_name,notnull,unique" json:"display_name,omitempty"`
	Role          UserRole     `bun:"user_role,notnull" json:"role,omitempty"`
	PasswordHash  string       `bun:"password_hash,notnull" json:"-"`
	Tokens        []*AuthToken `bun:"rel:has-many,join:id=user_id" json:"-"`
	PostHistory   []*PostVisit `bun:"rel:has-many,join:id=user_id" json:"-"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AuthToken is one member of a user's valid-token set. A row is inserted
// on login and deleted on logout; the token string itself is the signed
// value handed to the client.
type AuthToken struct {
	bun.BaseModel `bun:"table:auth_tokens,alias:tok"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string    `bun:"token,notnull" json:"token,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at,omitempty"`
}

// PostVisit records the last time a user opened a post. Deduplicated by
// (user, post); repeat visits only bump the timestamp.
type PostVisit struct {
	bun.BaseModel `bun:"table:post_visits,alias:pv"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	PostID        uuid.UUID `bun:"post_id,pk,type:uuid" json:"post_id,omitempty"`
	VisitedAt     time.Time `bun:"visited_at,notnull" json:"visited_at,omitempty"`
}

// Post is the blog post model. Author is the creating identity's display
// name and never changes after creation; delete authorization compares
// against it.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Author        string     `bun:"author,notnull" json:"author,omitempty"`
	Category      string     `bun:"category,notnull" json:"category,omitempty"`
	Body          string     `bun:"body,notnull" json:"body,omitempty"`
	Comments      []*Comment `bun:"rel:has-many,join:id=post_id" json:"comments,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Comment is a single post comment
type Comment struct {
	bun.BaseModel `bun:"table:post_comments,alias:cmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	PostID        uuid.UUID  `bun:"post_id,notnull,type:uuid" json:"post_id,omitempty"`
	Body          string     `bun:"body,notnull" json:"body,omitempty"`
	CreatedBy     string     `bun:"created_by,notnull" json:"created_by,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// PublicUser is the outward shape of an account: no hash, no token set.
type PublicUser struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        UserRole  `json:"role"`
}

// Public strips credentials and session state from a user record
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
