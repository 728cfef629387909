package dashboard

import (
	"time"

	"lead-crm/internal/models"
	"lead-crm/internal/util"
)

type ActivityEntry struct {
	LeadID      string `json:"leadId"`
	LeadName    string `json:"leadName"`
	Type        string `json:"type"`
	TypeLabel   string `json:"typeLabel"`
	Author      string `json:"author"`
	Description string `json:"description"`
	When        string `json:"when"`
}

// Activity turns recent interactions into the "Atividade recente" feed.
func Activity(interactions []*models.Interaction, now time.Time) []ActivityEntry {
	out := make([]ActivityEntry, 0, len(interactions))
	for _, i := range interactions {
		author := i.AuthorName.String
		if author == "" {
			author = "Sistema"
		}
		out = append(out, ActivityEntry{
			LeadID:      i.LeadID.String(),
			LeadName:    i.LeadName.String,
			Type:        i.Type,
			TypeLabel:   models.InteractionDisplayName(i.Type),
			Author:      author,
			Description: i.Description.String,
			When:        util.RelativeTimeBR(i.CreatedAt, now),
		})
	}
	return out
}
