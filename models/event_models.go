package models

import (
	"database/sql"
	"time"

	"synchsphere-backend/util"
)

// Event is a calendar event. Start and end are always stored in UTC; the
// write path normalizes user-entered local times before they get here.
// start <= end is expected but not enforced.
type Event struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"user_id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Location             string    `json:"location"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	InvitationLink       string    `json:"invitation_link,omitempty"`
	ExternalCalendarID   *string   `json:"external_calendar_id,omitempty"`
	ExternalCalendarType string    `json:"external_calendar_type,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// EventService handles event persistence.
type EventService struct {
	DB *sql.DB
}

func NewEventService(db *sql.DB) *EventService {
	return &EventService{DB: db}
}

// Create inserts an event and returns its id.
func (es *EventService) Create(e Event) (int64, error) {
	now := time.Now().UTC()
	result, err := es.DB.Exec(`
		INSERT INTO events (user_id, title, description, location, start_time, end_time,
		                    invitation_link, external_calendar_id, external_calendar_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.Title, e.Description, e.Location, e.StartTime.UTC(), e.EndTime.UTC(),
		e.InvitationLink, e.ExternalCalendarID, e.ExternalCalendarType, now, now)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Update rewrites the mutable fields of an owned event.
func (es *EventService) Update(e Event) error {
	_, err := es.DB.Exec(`
		UPDATE events
		SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?,
		    invitation_link = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, e.Title, e.Description, e.Location, e.StartTime.UTC(), e.EndTime.UTC(),
		e.InvitationLink, time.Now().UTC(), e.ID, e.UserID)
	return err
}

// Delete removes an owned event immediately and unconditionally.
func (es *EventService) Delete(eventID, userID int64) error {
	_, err := es.DB.Exec(`DELETE FROM events WHERE id = ? AND user_id = ?`, eventID, userID)
	return err
}

// GetByID loads a single event owned by the user.
func (es *EventService) GetByID(eventID, userID int64) (Event, error) {
	row := es.DB.QueryRow(`
		SELECT id, user_id, title, description, location, start_time, end_time,
		       invitation_link, external_calendar_id, external_calendar_type, created_at, updated_at
		FROM events WHERE id = ? AND user_id = ?
	`, eventID, userID)
	return scanEvent(row)
}

// List returns the user's events ascending by start time, optionally bounded
// to events overlapping the [start, end] window.
func (es *EventService) List(userID int64, start, end *time.Time) ([]Event, error) {
	query := `
		SELECT id, user_id, title, description, location, start_time, end_time,
		       invitation_link, external_calendar_id, external_calendar_type, created_at, updated_at
		FROM events WHERE user_id = ?`
	args := []interface{}{userID}
	if start != nil && end != nil {
		query += ` AND start_time <= ? AND end_time >= ?`
		args = append(args, end.UTC(), start.UTC())
	}
	query += ` ORDER BY start_time ASC`

	rows, err := es.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// FindByInvitationToken locates an event whose invitation link carries the
// given token, regardless of owner.
func (es *EventService) FindByInvitationToken(token string) (Event, error) {
	row := es.DB.QueryRow(`
		SELECT id, user_id, title, description, location, start_time, end_time,
		       invitation_link, external_calendar_id, external_calendar_type, created_at, updated_at
		FROM events WHERE invitation_link LIKE '%' || ? || '%' LIMIT 1
	`, token)
	return scanEvent(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Location,
		&e.StartTime, &e.EndTime, &e.InvitationLink, &e.ExternalCalendarID,
		&e.ExternalCalendarType, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Event{}, err
	}
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	return e, nil
}

// ProjectionMode names the two serialization styles the read API supports:
// explicit UTC instants the client localizes, or instants already converted
// into a requested zone.
type ProjectionMode int

const (
	ProjectionUTC ProjectionMode = iota
	ProjectionLocal
)

// DescriptionPreviewLength bounds descriptions in list projections.
const DescriptionPreviewLength = 200

// ProjectedEvent is the client-facing representation of an event, with
// start/end serialized as ISO-8601 strings.
type ProjectedEvent struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Location    string `json:"location"`
}

// ProjectEvents builds the list representation of events. Input ordering is
// preserved; descriptions are truncated to the preview length. In local mode
// the zone must resolve; in UTC mode the zone argument is ignored.
func ProjectEvents(events []Event, zone string, mode ProjectionMode) ([]ProjectedEvent, error) {
	if mode == ProjectionLocal {
		if _, err := util.ResolveTimezone(zone); err != nil {
			return nil, err
		}
	}

	projected := make([]ProjectedEvent, 0, len(events))
	for _, e := range events {
		p, err := projectOne(e, zone, mode)
		if err != nil {
			return nil, err
		}
		p.Description = truncateDescription(e.Description)
		projected = append(projected, p)
	}
	return projected, nil
}

// ProjectEventDetail builds the single-event representation with the full
// description preserved.
func ProjectEventDetail(e Event, zone string, mode ProjectionMode) (ProjectedEvent, error) {
	return projectOne(e, zone, mode)
}

func projectOne(e Event, zone string, mode ProjectionMode) (ProjectedEvent, error) {
	start := e.StartTime.UTC()
	end := e.EndTime.UTC()
	if mode == ProjectionLocal {
		var err error
		start, err = util.ToZone(start, zone)
		if err != nil {
			return ProjectedEvent{}, err
		}
		end, err = util.ToZone(end, zone)
		if err != nil {
			return ProjectedEvent{}, err
		}
	}

	return ProjectedEvent{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Start:       start.Format(time.RFC3339),
		End:         end.Format(time.RFC3339),
		Location:    e.Location,
	}, nil
}

func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= DescriptionPreviewLength {
		return s
	}
	return string(runes[:DescriptionPreviewLength])
}
