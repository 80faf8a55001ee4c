package models

import "time"

// User is the directory record for a registered account. PostIDs is the
// ordered list of posts owned by the user; it is kept consistent with the
// posts table after every mutating operation.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Country      string
	BornDate     *time.Time
	PhotoURL     string
	GameList     []string
	LinkList     []string
	Biography    string
	PostIDs      []string
	CreatedAt    time.Time
}

// UserPatch carries a sparse update: nil means "leave the stored value
// untouched", a non-nil pointer replaces it. Password holds a plaintext
// password and is hashed by the service before it reaches the repository.
type UserPatch struct {
	Email     *string
	Password  *string
	Name      *string
	Country   *string
	BornDate  *time.Time
	PhotoURL  *string
	GameList  *[]string
	LinkList  *[]string
	Biography *string
}

// IsEmpty reports whether the patch changes nothing.
func (p *UserPatch) IsEmpty() bool {
	return p.Email == nil && p.Password == nil && p.Name == nil &&
		p.Country == nil && p.BornDate == nil && p.PhotoURL == nil &&
		p.GameList == nil && p.LinkList == nil && p.Biography == nil
}
