package model

import "time"

// Profile is the site owner's public identity. Only one row is meaningful;
// writes are upserts against the first row.
type Profile struct {
	ID          string    `json:"id"          yaml:"-"`
	FullName    string    `json:"fullName"    yaml:"fullName"`
	Title       string    `json:"title"       yaml:"title"`
	Bio         string    `json:"bio"         yaml:"bio"`
	Email       string    `json:"email"       yaml:"email"`
	Phone       string    `json:"phone"       yaml:"phone"`
	Location    string    `json:"location"    yaml:"location"`
	AvatarURL   string    `json:"avatarUrl"   yaml:"avatarUrl"`
	HeaderImage string    `json:"headerImage" yaml:"headerImage"`
	CreatedAt   time.Time `json:"createdAt"   yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt"   yaml:"-"`
}

// Resume points at the downloadable CV. Singleton, like Profile.
type Resume struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}
