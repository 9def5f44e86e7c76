package models

import (
	"encoding/json"
	"time"
)

// LessonCategories lists the lesson taxonomy.
var LessonCategories = []Choice{
	{Value: "privacy", Label: "Privacy"},
	{Value: "safety", Label: "Safety"},
	{Value: "security", Label: "Security"},
	{Value: "awareness", Label: "Awareness"},
}

// LessonDifficulties lists the lesson difficulty levels.
var LessonDifficulties = []Choice{
	{Value: "beginner", Label: "Beginner"},
	{Value: "intermediate", Label: "Intermediate"},
	{Value: "advanced", Label: "Advanced"},
}

// Lesson is a digital-literacy lesson with structured content and an optional quiz.
type Lesson struct {
	ID              int             `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Difficulty      string          `json:"difficulty"`
	DurationMinutes int             `json:"duration_minutes"`
	Content         json.RawMessage `json:"content,omitempty"`
	Quiz            json.RawMessage `json:"quiz,omitempty"`
	ThumbnailURL    string          `json:"thumbnail_url"`
	Published       bool            `json:"published"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LessonInput is the admin create/update body for lessons.
type LessonInput struct {
	Title           string          `json:"title" validate:"required,max=200"`
	Description     string          `json:"description" validate:"required"`
	Category        string          `json:"category" validate:"required,oneof=privacy safety security awareness"`
	Difficulty      string          `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationMinutes int             `json:"duration_minutes" validate:"gte=0,lte=1440"`
	Content         json.RawMessage `json:"content"`
	Quiz            json.RawMessage `json:"quiz"`
	ThumbnailURL    string          `json:"thumbnail_url" validate:"omitempty,url,max=500"`
	Published       bool            `json:"published"`
}

// ResourceCategories lists the resource directory taxonomy.
var ResourceCategories = []Choice{
	{Value: "legal_rights", Label: "Legal Rights"},
	{Value: "safety_planning", Label: "Safety Planning"},
	{Value: "organizations", Label: "Support Organizations"},
	{Value: "laws", Label: "Laws & Legislation"},
	{Value: "financial", Label: "Financial Assistance"},
	{Value: "healthcare", Label: "Healthcare Resources"},
}

// ResourceTypes lists the kinds of resource entries.
var ResourceTypes = []Choice{
	{Value: "article", Label: "Article"},
	{Value: "guide", Label: "Guide"},
	{Value: "directory", Label: "Directory"},
	{Value: "law", Label: "Law/Legislation"},
	{Value: "organization", Label: "Organization"},
}

// Resource is an entry in the resource directory.
type Resource struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Content      string    `json:"content,omitempty"`
	Category     string    `json:"category"`
	ResourceType string    `json:"resource_type"`
	ExternalURL  string    `json:"external_url"`
	IsPublished  bool      `json:"is_published"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResourceInput is the admin create/update body for resources.
type ResourceInput struct {
	Title        string   `json:"title" validate:"required,max=300"`
	Description  string   `json:"description" validate:"required"`
	Content      string   `json:"content"`
	Category     string   `json:"category" validate:"required,oneof=legal_rights safety_planning organizations laws financial healthcare"`
	ResourceType string   `json:"resource_type" validate:"omitempty,oneof=article guide directory law organization"`
	ExternalURL  string   `json:"external_url" validate:"omitempty,url,max=500"`
	IsPublished  *bool    `json:"is_published"`
	Tags         []string `json:"tags" validate:"max=20,dive,max=50"`
}

// HelplineCategories lists the helpline taxonomy.
var HelplineCategories = []Choice{
	{Value: "crisis", Label: "Crisis Support"},
	{Value: "legal", Label: "Legal Assistance"},
	{Value: "counseling", Label: "Counseling"},
	{Value: "shelter", Label: "Shelter/Housing"},
	{Value: "medical", Label: "Medical Services"},
	{Value: "other", Label: "Other Support"},
}

// Helpline is a phone/text support service listing.
type Helpline struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	PhoneNumber  string    `json:"phone_number"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Availability string    `json:"availability"`
	Is247        bool      `json:"is_24_7"`
	Languages    []string  `json:"languages"`
	Website      string    `json:"website"`
	IsActive     bool      `json:"is_active"`
	Priority     int       `json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HelplineInput is the admin create/update body for helplines.
type HelplineInput struct {
	Name         string   `json:"name" validate:"required,max=200"`
	PhoneNumber  string   `json:"phone_number" validate:"required,max=50"`
	Description  string   `json:"description" validate:"required"`
	Category     string   `json:"category" validate:"required,oneof=crisis legal counseling shelter medical other"`
	Availability string   `json:"availability" validate:"max=200"`
	Is247        bool     `json:"is_24_7"`
	Languages    []string `json:"languages" validate:"max=30,dive,max=50"`
	Website      string   `json:"website" validate:"omitempty,url,max=500"`
	IsActive     *bool    `json:"is_active"`
	Priority     int      `json:"priority" validate:"gte=0,lte=1000"`
}

// Input returns the editable fields of l, the starting point for a partial update.
func (l *Lesson) Input() LessonInput {
	return LessonInput{
		Title:           l.Title,
		Description:     l.Description,
		Category:        l.Category,
		Difficulty:      l.Difficulty,
		DurationMinutes: l.DurationMinutes,
		Content:         l.Content,
		Quiz:            l.Quiz,
		ThumbnailURL:    l.ThumbnailURL,
		Published:       l.Published,
	}
}

// Input returns the editable fields of r, the starting point for a partial update.
func (r *Resource) Input() ResourceInput {
	published := r.IsPublished
	return ResourceInput{
		Title:        r.Title,
		Description:  r.Description,
		Content:      r.Content,
		Category:     r.Category,
		ResourceType: r.ResourceType,
		ExternalURL:  r.ExternalURL,
		IsPublished:  &published,
		Tags:         append([]string(nil), r.Tags...),
	}
}

// Input returns the editable fields of h, the starting point for a partial update.
func (h *Helpline) Input() HelplineInput {
	active := h.IsActive
	return HelplineInput{
		Name:         h.Name,
		PhoneNumber:  h.PhoneNumber,
		Description:  h.Description,
		Category:     h.Category,
		Availability: h.Availability,
		Is247:        h.Is247,
		Languages:    append([]string(nil), h.Languages...),
		Website:      h.Website,
		IsActive:     &active,
		Priority:     h.Priority,
	}
}
