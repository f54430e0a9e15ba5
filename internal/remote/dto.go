package remote

import (
	"time"

	"github.com/NatsuCamellia/cool-tracker/internal/models"
)

// Wire-format DTOs for the LMS REST API. Kept separate from the domain
// entities in models; mapping happens at this boundary and nowhere else.

type profileDTO struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Bio          *string `json:"bio"`
	PrimaryEmail string  `json:"primary_email"`
	AvatarURL    *string `json:"avatar_url"`
}

type courseDTO struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	IsPublic   bool   `json:"is_public"`
	CourseCode string `json:"course_code"`
}

type submissionDTO struct {
	WorkflowState string `json:"workflow_state"`
}

type assignmentDTO struct {
	ID             int           `json:"id"`
	CourseID       int           `json:"course_id"`
	Name           string        `json:"name"`
	DueAt          *string       `json:"due_at"`
	CreatedAt      string        `json:"created_at"`
	PointsPossible float64       `json:"points_possible"`
	HTMLURL        string        `json:"html_url"`
	Submission     submissionDTO `json:"submission"`
}

func (d profileDTO) toProfile() *models.Profile {
	p := &models.Profile{
		ID:           d.ID,
		Name:         d.Name,
		PrimaryEmail: d.PrimaryEmail,
		AvatarURL:    defaultAvatarURL,
	}
	if d.Bio != nil {
		p.Bio = *d.Bio
	}
	if d.AvatarURL != nil && *d.AvatarURL != "" {
		p.AvatarURL = *d.AvatarURL
	}
	return p
}

func (d courseDTO) toCourse() models.Course {
	return models.Course{
		ID:         d.ID,
		Name:       d.Name,
		IsPublic:   d.IsPublic,
		CourseCode: d.CourseCode,
	}
}

// mapAssignments converts assignment DTOs to domain assignments.
// Assignments without a due time are skipped: the tracker has nothing to
// track for them. An unparseable timestamp skips the row as well.
func mapAssignments(dtos []assignmentDTO) []models.Assignment {
	out := make([]models.Assignment, 0, len(dtos))
	for _, d := range dtos {
		if d.DueAt == nil {
			continue
		}
		due, err := time.Parse(time.RFC3339, *d.DueAt)
		if err != nil {
			continue
		}
		created, err := time.Parse(time.RFC3339, d.CreatedAt)
		if err != nil {
			created = time.Time{}
		}
		out = append(out, models.Assignment{
			ID:             d.ID,
			CourseID:       d.CourseID,
			Name:           d.Name,
			DueTime:        due,
			CreatedTime:    created,
			PointsPossible: d.PointsPossible,
			Submitted:      d.Submission.WorkflowState != "unsubmitted",
			HTMLURL:        d.HTMLURL,
		})
	}
	return out
}
