package about

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Info is the singleton "about us" content.
type Info struct {
	ID           string    `json:"id"`
	Story        string    `json:"story"`
	Mission      string    `json:"mission"`
	FacebookURL  string    `json:"facebook_url"`
	InstagramURL string    `json:"instagram_url"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Repo struct{ DB postgres.DB }

const columns = `id, story, mission, facebook_url, instagram_url, updated_at`

// Get returns nil, nil when nothing was saved yet.
func (r *Repo) Get(ctx context.Context) (*Info, error) {
	var i Info
	err := r.DB.QueryRow(ctx, `SELECT `+columns+` FROM about_info ORDER BY updated_at DESC LIMIT 1`).
		Scan(&i.ID, &i.Story, &i.Mission, &i.FacebookURL, &i.InstagramURL, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, postgres.Persistence("get about info", err)
	}
	return &i, nil
}

// Save updates the existing row, or creates it on the first save.
func (r *Repo) Save(ctx context.Context, in Info) (*Info, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	in.Story = strings.TrimSpace(in.Story)
	in.Mission = strings.TrimSpace(in.Mission)
	in.FacebookURL = strings.TrimSpace(in.FacebookURL)
	in.InstagramURL = strings.TrimSpace(in.InstagramURL)

	var out Info
	if current == nil {
		err = r.DB.QueryRow(ctx, `
			INSERT INTO about_info(id, story, mission, facebook_url, instagram_url)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING `+columns,
			uuid.NewString(), in.Story, in.Mission, in.FacebookURL, in.InstagramURL).
			Scan(&out.ID, &out.Story, &out.Mission, &out.FacebookURL, &out.InstagramURL, &out.UpdatedAt)
	} else {
		err = r.DB.QueryRow(ctx, `
			UPDATE about_info SET story=$2, mission=$3, facebook_url=$4, instagram_url=$5, updated_at=now()
			WHERE id=$1
			RETURNING `+columns,
			current.ID, in.Story, in.Mission, in.FacebookURL, in.InstagramURL).
			Scan(&out.ID, &out.Story, &out.Mission, &out.FacebookURL, &out.InstagramURL, &out.UpdatedAt)
	}
	if err != nil {
		log.Printf("save about info: %v", err)
		return nil, postgres.Persistence("save about info", err)
	}
	return &out, nil
}
