package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	"github.com/oksasatya/vidtube-accounts/internal/domain/repository"
)

type GraphRepository struct {
	db DB
}

func NewGraphRepository(db DB) *GraphRepository {
	return &GraphRepository{db: db}
}

// ChannelProfile computes both degree counts and the viewer flag in one
// statement so they come from the same snapshot. username must already be
// lowercase; the plain equality keeps users_username_key usable.
func (r *GraphRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*entity.ChannelProfile, error) {
	p := &entity.ChannelProfile{}
	err := r.db.QueryRow(ctx, `
		SELECT u.display_name, u.username, u.email, u.avatar_url, u.cover_image_url,
			(SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id),
			(SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
			COALESCE($2::uuid IS NOT NULL AND EXISTS (
				SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2::uuid
			), false)
		FROM users u
		WHERE u.username = $1
	`, username, nullable(viewerID)).Scan(
		&p.DisplayName, &p.Username, &p.Email, &p.AvatarURL, &p.CoverImageURL,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed,
	)
	if err != nil {
		return nil, mapGraphErr(err)
	}
	return p, nil
}

// WatchHistory joins each entry to its video and the video's owner. Entries
// come back in insertion order; owner is nil when it no longer resolves.
func (r *GraphRepository) WatchHistory(ctx context.Context, userID string) ([]entity.WatchHistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT v.id::text, COALESCE(v.owner_id::text, ''), v.video_file, v.thumbnail, v.title,
			v.description, v.duration, v.views, v.is_published, v.created_at, v.updated_at,
			o.id IS NOT NULL, COALESCE(o.display_name, ''), COALESCE(o.username, ''), COALESCE(o.avatar_url, '')
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		LEFT JOIN users o ON o.id = v.owner_id
		WHERE wh.user_id = $1
		ORDER BY wh.id ASC
	`, userID)
	if err != nil {
		return nil, mapGraphErr(err)
	}
	defer rows.Close()

	entries := []entity.WatchHistoryEntry{}
	for rows.Next() {
		var (
			e        entity.WatchHistoryEntry
			hasOwner bool
			owner    entity.OwnerSummary
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.VideoFile, &e.Thumbnail, &e.Title,
			&e.Description, &e.Duration, &e.Views, &e.IsPublished, &e.CreatedAt, &e.UpdatedAt,
			&hasOwner, &owner.DisplayName, &owner.Username, &owner.AvatarURL); err != nil {
			return nil, mapGraphErr(err)
		}
		if hasOwner {
			e.Owner = &owner
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapGraphErr(err)
	}
	return entries, nil
}

func (r *GraphRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO watch_history (user_id, video_id) VALUES ($1, $2)`, userID, videoID)
	if err != nil {
		return mapGraphErr(err)
	}
	return nil
}

// FindVideoID, CreateVideo and Subscribe are used by the seed command only.
func (r *GraphRepository) FindVideoID(ctx context.Context, ownerID, title string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx,
		`SELECT id::text FROM videos WHERE owner_id = $1 AND title = $2 ORDER BY created_at LIMIT 1`,
		ownerID, title).Scan(&id)
	if err != nil {
		return "", mapGraphErr(err)
	}
	return id, nil
}

func (r *GraphRepository) CreateVideo(ctx context.Context, v *entity.Video) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO videos (owner_id, video_file, thumbnail, title, description, duration, views, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at, updated_at
	`, nullable(v.OwnerID), v.VideoFile, v.Thumbnail, v.Title, v.Description, v.Duration, v.Views, v.IsPublished).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return mapGraphErr(err)
	}
	return nil
}

func (r *GraphRepository) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)
		ON CONFLICT (subscriber_id, channel_id) DO NOTHING
	`, subscriberID, channelID)
	if err != nil {
		return mapGraphErr(err)
	}
	return nil
}

func mapGraphErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	switch code, _ := pgCode(err); code {
	case codeForeignKeyViolation, codeInvalidText:
		return repository.ErrNotFound
	}
	return fmt.Errorf("graph: %w", err)
}

var _ repository.GraphRepository = (*GraphRepository)(nil)
