package model

import "time"

// MovieStatus describes where a movie sits in its run. Movies move from
// COMING to ACTIVE when they open and to ENDED once pulled from theaters.
type MovieStatus string

// Valid movie statuses.
const (
	MovieComing MovieStatus = "coming"
	MovieActive MovieStatus = "active"
	MovieEnded  MovieStatus = "ended"
)

// Movie represents a film that can be scheduled into showtimes. Each
// movie corresponds to a row in the `movies` table; genres are stored
// as a comma separated list in a single column.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title of the movie.
//  Description – synopsis shown on the detail page.
//  Genres      – list of genre labels.
//  Language    – ISO 639-1 language code.
//  DurationMin – running time in minutes.
//  ReleaseDate – theatrical release date.
//  PosterURL   – URL of the poster image.
//  Rating      – aggregate rating on a 0–10 scale.
//  Status      – lifecycle status (coming, active, ended).
//  CreatedAt   – timestamp when the movie was created.
//  UpdatedAt   – timestamp of last update.
type Movie struct {
	ID          uint64      // movies.id
	Title       string      // movies.title
	Description string      // movies.description
	Genres      []string    // movies.genres (comma separated column)
	Language    string      // movies.language
	DurationMin uint32      // movies.duration_min
	ReleaseDate time.Time   // movies.release_date
	PosterURL   string      // movies.poster_url
	Rating      float64     // movies.rating
	Status      MovieStatus // movies.status
	CreatedAt   time.Time   // movies.created_at
	UpdatedAt   time.Time   // movies.updated_at
}
