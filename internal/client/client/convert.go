package client

import (
	"github.com/dmitrijs2005/linkedcommunity/internal/api"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/models"
)

func profileFromAPI(p *api.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	out := &models.Profile{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Bio != nil && *p.Bio != "" {
		bio := *p.Bio
		out.Bio = &bio
	}
	if p.AvatarKey != nil && *p.AvatarKey != "" {
		key := *p.AvatarKey
		out.AvatarKey = &key
	}
	return out
}

func profileToAPI(p *models.Profile) api.Profile {
	return api.Profile{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Bio:       p.Bio,
		AvatarKey: p.AvatarKey,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func postFromAPI(p *api.Post) models.Post {
	return models.Post{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	}
}

func feedPostFromAPI(p *api.Post) models.FeedPost {
	return models.FeedPost{Post: postFromAPI(p), Author: profileFromAPI(p.Author)}
}
