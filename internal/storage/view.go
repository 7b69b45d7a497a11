package storage

import "github.com/VitaminP8/postsync/internal/model"

// ViewParts is everything needed to assemble a PostView. Both backends load
// the parts their own way and share the assembly.
type ViewParts struct {
	Post     *model.Post
	Likes    map[string]*model.Like
	Comments map[string]*model.Comment
	Replies  map[string]*model.Reply
	Users    map[string]*model.User
}

// BuildPostView resolves the post's ordered id lists against the loaded
// parts. Users that no longer exist resolve to a bare id.
func BuildPostView(p ViewParts) *model.PostView {
	ref := func(id string) model.UserRef {
		if u, ok := p.Users[id]; ok {
			return model.UserRef{ID: u.ID, Username: u.Username}
		}
		return model.UserRef{ID: id}
	}

	owner := ref(p.Post.OwnerID)
	if u, ok := p.Users[p.Post.OwnerID]; ok {
		owner.Email = u.Email
	}

	view := &model.PostView{
		ID:          p.Post.ID,
		Image:       p.Post.Image,
		Title:       p.Post.Title,
		Description: p.Post.Description,
		Date:        p.Post.CreatedAt,
		User:        owner,
		Likes:       make([]model.LikeView, 0, len(p.Post.LikeIDs)),
		Comments:    make([]model.CommentView, 0, len(p.Post.CommentIDs)),
	}

	for _, id := range p.Post.LikeIDs {
		l, ok := p.Likes[id]
		if !ok {
			continue
		}
		view.Likes = append(view.Likes, model.LikeView{ID: l.ID, User: ref(l.UserID)})
	}

	for _, id := range p.Post.CommentIDs {
		c, ok := p.Comments[id]
		if !ok {
			continue
		}
		cv := model.CommentView{
			ID:      c.ID,
			User:    ref(c.UserID),
			Text:    c.Text,
			Date:    c.CreatedAt,
			Replies: make([]model.ReplyView, 0, len(c.ReplyIDs)),
		}
		for _, rid := range c.ReplyIDs {
			r, ok := p.Replies[rid]
			if !ok {
				continue
			}
			cv.Replies = append(cv.Replies, model.ReplyView{
				ID:   r.ID,
				User: ref(r.UserID),
				Text: r.Text,
				Date: r.CreatedAt,
			})
		}
		view.Comments = append(view.Comments, cv)
	}

	return view
}
