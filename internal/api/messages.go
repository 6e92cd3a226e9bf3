package api

import "time"

type Empty struct{}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by SignUp, SignIn and RefreshToken.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IdentityID   string `json:"identity_id"`
	Email        string `json:"email"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Bio       *string   `json:"bio"`
	AvatarKey *string   `json:"avatar_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetProfileRequest struct {
	ID string `json:"id"`
}

type CreateProfileRequest struct {
	Profile Profile `json:"profile"`
}

type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

// UpdateProfileRequest carries a partial update. Nil fields are left alone;
// an empty Bio clears it.
type UpdateProfileRequest struct {
	ID        string    `json:"id"`
	FullName  *string   `json:"full_name,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	AvatarKey *string   `json:"avatar_key,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Profile  `json:"author,omitempty"`
}

// ListPostsRequest lists every post when AuthorID is empty.
type ListPostsRequest struct {
	AuthorID string `json:"author_id,omitempty"`
}

type ListPostsResponse struct {
	Posts []Post `json:"posts"`
}

type CreatePostRequest struct {
	AuthorID string `json:"author_id"`
	Content  string `json:"content"`
}

type CreatePostResponse struct {
	Post Post `json:"post"`
}

type AvatarUploadURLRequest struct {
	ContentType string `json:"content_type"`
}

type AvatarUploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type PingResponse struct {
	Status string `json:"status"`
}
