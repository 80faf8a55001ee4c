package httpapi

import (
	"time"

	"github.com/akozlovs/gamersnet/internal/server/models"
)

// userSummaryView is the directory-listing shape.
type userSummaryView struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Country  string `json:"country"`
	PhotoURL string `json:"photoUrl"`
}

// userProfileView is the public single-user shape. It hides the username and
// email; those appear only when the user views their own profile.
type userProfileView struct {
	userSummaryView
	BornDate  *time.Time `json:"bornDate,omitempty"`
	GameList  []string   `json:"gameList"`
	LinkList  []string   `json:"linkList"`
	Biography string     `json:"biography"`
	PostIDs   []string   `json:"postIds"`
}

type userSelfView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	userProfileView
}

type ownerView struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoUrl"`
}

type postView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Owner     ownerView `json:"owner"`
}

func newUserSummaryView(u *models.User) userSummaryView {
	return userSummaryView{
		Name:     u.Name,
		Role:     u.Role,
		Country:  u.Country,
		PhotoURL: u.PhotoURL,
	}
}

func newUserSummaryViews(users []*models.User) []userSummaryView {
	views := make([]userSummaryView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserSummaryView(u))
	}
	return views
}

func newUserProfileView(u *models.User) userProfileView {
	return userProfileView{
		userSummaryView: newUserSummaryView(u),
		BornDate:        u.BornDate,
		GameList:        emptyIfNil(u.GameList),
		LinkList:        emptyIfNil(u.LinkList),
		Biography:       u.Biography,
		PostIDs:         emptyIfNil(u.PostIDs),
	}
}

func newUserSelfView(u *models.User) userSelfView {
	return userSelfView{
		Username:        u.Username,
		Email:           u.Email,
		userProfileView: newUserProfileView(u),
	}
}

func newPostView(p *models.PostWithOwner) postView {
	return postView{
		ID:        p.ID,
		Text:      p.Text,
		CreatedAt: p.CreatedAt,
		Owner: ownerView{
			Username: p.Owner.Username,
			Name:     p.Owner.Name,
			PhotoURL: p.Owner.PhotoURL,
		},
	}
}

func newPostViews(posts []*models.PostWithOwner) []postView {
	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p))
	}
	return views
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
