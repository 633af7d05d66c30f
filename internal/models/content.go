package models

import (
	"fmt"
	"time"

	"cms0/internal/events"
	"cms0/internal/rbac"

	"gorm.io/gorm"
)

// Page is a standalone CMS page.
type Page struct {
	Base
	Title           string        `gorm:"size:200;not null" json:"title" validate:"required,min=2"`
	Slug            string        `gorm:"uniqueIndex;size:240" json:"slug"`
	Content         string        `gorm:"type:text" json:"content"`
	Status          PublishStatus `gorm:"size:20;not null;default:'draft'" json:"status" validate:"omitempty,publish_status"`
	PublishedAt     *time.Time    `json:"publishedAt,omitempty"`
	AuthorID        string        `gorm:"type:uuid;default:NULL" json:"authorId,omitempty"`
	Author          *User         `json:"author,omitempty"`
	MetaTitle       string        `gorm:"size:255" json:"metaTitle,omitempty"`
	MetaDescription string        `gorm:"size:500" json:"metaDescription,omitempty"`
}

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if err := p.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if p.Slug == "" {
		p.Slug = rbac.Slugify(p.Title)
	}
	return nil
}

func (p *Page) AfterCreate(tx *gorm.DB) error {
	events.Emit("pages.created", p)
	return nil
}

// Post is a dated blog entry, optionally filed under a category.
type Post struct {
	Base
	Title       string        `gorm:"size:200;not null" json:"title" validate:"required,min=2"`
	Slug        string        `gorm:"uniqueIndex;size:240" json:"slug"`
	Content     string        `gorm:"type:text" json:"content"`
	Excerpt     string        `gorm:"size:500" json:"excerpt,omitempty"`
	Status      PublishStatus `gorm:"size:20;not null;default:'draft'" json:"status" validate:"omitempty,publish_status"`
	PublishedAt *time.Time    `json:"publishedAt,omitempty"`
	CategoryID  string        `gorm:"type:uuid;default:NULL" json:"categoryId,omitempty"`
	Category    *Category     `json:"category,omitempty"`
	AuthorID    string        `gorm:"type:uuid;default:NULL" json:"authorId,omitempty"`
	Author      *User         `json:"author,omitempty"`
	ImageURL    string        `gorm:"size:600" json:"imageUrl,omitempty"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if err := p.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if p.Slug == "" {
		p.Slug = rbac.Slugify(p.Title)
	}
	return nil
}

// Article is long-form editorial content.
type Article struct {
	Base
	Title       string        `gorm:"size:200;not null" json:"title" validate:"required,min=2"`
	Slug        string        `gorm:"uniqueIndex;size:240" json:"slug"`
	Body        string        `gorm:"type:text" json:"body"`
	Status      PublishStatus `gorm:"size:20;not null;default:'draft'" json:"status" validate:"omitempty,publish_status"`
	PublishedAt *time.Time    `json:"publishedAt,omitempty"`
	AuthorID    string        `gorm:"type:uuid;default:NULL" json:"authorId,omitempty"`
	Author      *User         `json:"author,omitempty"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if err := a.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if a.Slug == "" {
		a.Slug = rbac.Slugify(a.Title)
	}
	return nil
}

// Category groups posts.
type Category struct {
	Base
	Name        string `gorm:"size:120;not null" json:"name" validate:"required,min=2"`
	Slug        string `gorm:"uniqueIndex;size:240" json:"slug"`
	Description string `gorm:"size:500" json:"description,omitempty"`
	Posts       []Post `gorm:"foreignKey:CategoryID" json:"posts,omitempty"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if err := c.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if c.Slug == "" {
		c.Slug = rbac.Slugify(c.Name)
	}
	return nil
}

// MenuItem is one entry of the site navigation menu.
type MenuItem struct {
	Base
	Label    string `gorm:"size:120;not null" json:"label" validate:"required"`
	URL      string `gorm:"size:600;not null" json:"url" validate:"required"`
	Position int    `gorm:"not null;default:0" json:"position"`
	ParentID string `gorm:"type:uuid;default:NULL" json:"parentId,omitempty"`
}

// Logo stores the uploaded site logo and its public URL.
type Logo struct {
	Base
	Name    string `gorm:"size:200;not null" json:"name" validate:"required"`
	URL     string `gorm:"size:600;not null" json:"url"`
	AltText string `gorm:"size:255" json:"altText,omitempty"`
}

// SiteSetting holds global site configuration and branding.
type SiteSetting struct {
	Base
	SiteName        string `gorm:"size:200;not null" json:"siteName" validate:"required"`
	SiteDescription string `gorm:"type:text" json:"siteDescription,omitempty"`
	SiteKeyword     string `gorm:"size:500" json:"siteKeyword,omitempty"`
	SitePhone       string `gorm:"size:50" json:"sitePhone,omitempty"`
	SiteEmail       string `gorm:"size:150" json:"siteEmail,omitempty"`
	SiteAuthor      string `gorm:"size:150" json:"siteAuthor,omitempty"`
	SiteLogo        string `gorm:"size:600" json:"siteLogo,omitempty"`
}

// Media is an uploaded file stored in object storage.
type Media struct {
	Base
	Name      string `gorm:"not null" json:"name" validate:"required"`
	Path      string `gorm:"not null" json:"path" validate:"required"`
	Size      int64  `gorm:"not null" json:"size" validate:"required,min=1"`
	Type      string `gorm:"not null" json:"type" validate:"required"`
	UserID    string `gorm:"type:uuid;default:NULL" json:"userId,omitempty"`
	User      *User  `json:"user,omitempty"`
	SignedURL string `gorm:"-" json:"signedUrl,omitempty"` // Virtual field
}

func (m *Media) AfterFind(tx *gorm.DB) error {
	registryMu.RLock()
	generator := urlGenerator
	registryMu.RUnlock()

	if generator != nil {
		// Download links expire after an hour
		url, err := generator.GetSignedURL(tx.Statement.Context, m.Path, time.Hour)
		if err != nil {
			return fmt.Errorf("failed to generate signed URL: %w", err)
		}
		m.SignedURL = url
	}
	return nil
}
