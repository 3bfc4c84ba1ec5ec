package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/trx/internal/shared"
)

// Migration job lifecycle states.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// base carries the identity and timestamp fields shared by all persistent
// entities. Sequence is a per-table monotonic counter assigned on insert.
type base struct {
	id        string
	sequence  int64
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase() base {
	now := time.Now().UTC()
	return base{id: shared.GenerateID(), createdAt: now, updatedAt: now}
}

func (b *base) ID() string            { return b.id }
func (b *base) Sequence() int64       { return b.sequence }
func (b *base) CreatedAt() time.Time  { return b.createdAt }
func (b *base) UpdatedAt() time.Time  { return b.updatedAt }
func (b *base) DeletedAt() *time.Time { return b.deletedAt }

func (b *base) SetID(id string)           { b.id = id }
func (b *base) SetSequence(n int64)       { b.sequence = n }
func (b *base) SetCreatedAt(t time.Time)  { b.createdAt = t }
func (b *base) SetUpdatedAt(t time.Time)  { b.updatedAt = t }
func (b *base) SetDeletedAt(t *time.Time) { b.deletedAt = t }

// Touch refreshes the updated timestamp.
func (b *base) Touch() { b.updatedAt = time.Now().UTC() }

// User is a stored source-service account profile, captured by the info
// command.
type User struct {
	base
	service     string
	serviceID   string
	displayName string
	email       string
	country     string
	product     string
}

// NewUser builds a user for the given service account with a fresh ID.
func NewUser(service, serviceID, displayName string) *User {
	return &User{base: newBase(), service: service, serviceID: serviceID, displayName: displayName}
}

func (u *User) Service() string     { return u.service }
func (u *User) ServiceID() string   { return u.serviceID }
func (u *User) DisplayName() string { return u.displayName }
func (u *User) Email() string       { return u.email }
func (u *User) Country() string     { return u.country }
func (u *User) Product() string     { return u.product }

func (u *User) SetDisplayName(v string) { u.displayName = v }
func (u *User) SetEmail(v string)       { u.email = v }
func (u *User) SetCountry(v string)     { u.country = v }
func (u *User) SetProduct(v string)     { u.product = v }

func (u *User) Validate() error {
	if u.service == "" || u.serviceID == "" {
		return fmt.Errorf("%w: user requires service and service id", shared.ErrInvalidInput)
	}
	return nil
}

// StoredTrack is a cached track keyed by (service, service ID). The artist
// column holds the comma-joined artist line.
type StoredTrack struct {
	base
	service    string
	serviceID  string
	title      string
	artist     string
	album      string
	durationMS int
	isrc       string
}

// NewStoredTrack builds a cached track with a fresh ID.
func NewStoredTrack(service, serviceID, title, artist string) *StoredTrack {
	return &StoredTrack{base: newBase(), service: service, serviceID: serviceID, title: title, artist: artist}
}

func (t *StoredTrack) Service() string   { return t.service }
func (t *StoredTrack) ServiceID() string { return t.serviceID }
func (t *StoredTrack) Title() string     { return t.title }
func (t *StoredTrack) Artist() string    { return t.artist }
func (t *StoredTrack) Album() string     { return t.album }
func (t *StoredTrack) DurationMS() int   { return t.durationMS }
func (t *StoredTrack) ISRC() string      { return t.isrc }

func (t *StoredTrack) SetTitle(v string)    { t.title = v }
func (t *StoredTrack) SetArtist(v string)   { t.artist = v }
func (t *StoredTrack) SetAlbum(v string)    { t.album = v }
func (t *StoredTrack) SetDurationMS(v int)  { t.durationMS = v }
func (t *StoredTrack) SetISRC(v string)     { t.isrc = v }

func (t *StoredTrack) Validate() error {
	if t.service == "" || t.serviceID == "" {
		return fmt.Errorf("%w: track requires service and service id", shared.ErrInvalidInput)
	}
	if t.title == "" {
		return fmt.Errorf("%w: track requires a title", shared.ErrInvalidInput)
	}
	return nil
}

// StoredPlaylist is a cached playlist's metadata for one service.
type StoredPlaylist struct {
	base
	service     string
	serviceID   string
	name        string
	description string
	trackCount  int
	public      bool
}

// NewStoredPlaylist builds a cached playlist with a fresh ID.
func NewStoredPlaylist(service, serviceID, name string) *StoredPlaylist {
	return &StoredPlaylist{base: newBase(), service: service, serviceID: serviceID, name: name}
}

func (p *StoredPlaylist) Service() string     { return p.service }
func (p *StoredPlaylist) ServiceID() string   { return p.serviceID }
func (p *StoredPlaylist) Name() string        { return p.name }
func (p *StoredPlaylist) Description() string { return p.description }
func (p *StoredPlaylist) TrackCount() int     { return p.trackCount }
func (p *StoredPlaylist) Public() bool        { return p.public }

func (p *StoredPlaylist) SetName(v string)        { p.name = v }
func (p *StoredPlaylist) SetDescription(v string) { p.description = v }
func (p *StoredPlaylist) SetTrackCount(v int)     { p.trackCount = v }
func (p *StoredPlaylist) SetPublic(v bool)        { p.public = v }

func (p *StoredPlaylist) Validate() error {
	if p.service == "" || p.serviceID == "" {
		return fmt.Errorf("%w: playlist requires service and service id", shared.ErrInvalidInput)
	}
	if p.name == "" {
		return fmt.Errorf("%w: playlist requires a name", shared.ErrInvalidInput)
	}
	return nil
}

// MigrationJob records one migration run for the history command. The
// orchestrator never writes these; the CLI layer persists a job around each
// run.
type MigrationJob struct {
	base
	userID           string
	sourceService    string
	sourcePlaylistID string
	targetService    string
	targetPlaylistID string
	status           string
	tracksTotal      int
	tracksMigrated   int
	tracksFailed     int
	errorMessage     string
	startedAt        *time.Time
	completedAt      *time.Time
}

// NewMigrationJob builds a pending job for a playlist migration.
func NewMigrationJob(userID, sourceService, sourcePlaylistID, targetService string) *MigrationJob {
	return &MigrationJob{
		base:             newBase(),
		userID:           userID,
		sourceService:    sourceService,
		sourcePlaylistID: sourcePlaylistID,
		targetService:    targetService,
		status:           JobStatusPending,
	}
}

func (j *MigrationJob) UserID() string           { return j.userID }
func (j *MigrationJob) SourceService() string    { return j.sourceService }
func (j *MigrationJob) SourcePlaylistID() string { return j.sourcePlaylistID }
func (j *MigrationJob) TargetService() string    { return j.targetService }
func (j *MigrationJob) TargetPlaylistID() string { return j.targetPlaylistID }
func (j *MigrationJob) Status() string           { return j.status }
func (j *MigrationJob) TracksTotal() int         { return j.tracksTotal }
func (j *MigrationJob) TracksMigrated() int      { return j.tracksMigrated }
func (j *MigrationJob) TracksFailed() int        { return j.tracksFailed }
func (j *MigrationJob) ErrorMessage() string     { return j.errorMessage }
func (j *MigrationJob) StartedAt() *time.Time    { return j.startedAt }
func (j *MigrationJob) CompletedAt() *time.Time  { return j.completedAt }

func (j *MigrationJob) SetTargetPlaylistID(v string) { j.targetPlaylistID = v }
func (j *MigrationJob) SetStatus(v string)           { j.status = v }
func (j *MigrationJob) SetTracksTotal(v int)         { j.tracksTotal = v }
func (j *MigrationJob) SetTracksMigrated(v int)      { j.tracksMigrated = v }
func (j *MigrationJob) SetTracksFailed(v int)        { j.tracksFailed = v }
func (j *MigrationJob) SetErrorMessage(v string)     { j.errorMessage = v }
func (j *MigrationJob) SetStartedAt(t *time.Time)    { j.startedAt = t }
func (j *MigrationJob) SetCompletedAt(t *time.Time)  { j.completedAt = t }

// Start marks the job running and stamps the start time.
func (j *MigrationJob) Start() {
	now := time.Now().UTC()
	j.status = JobStatusRunning
	j.startedAt = &now
	j.Touch()
}

// RecordResult copies the run's track counts onto the job.
func (j *MigrationJob) RecordResult(total, migrated, failed int) {
	j.tracksTotal = total
	j.tracksMigrated = migrated
	j.tracksFailed = failed
	j.Touch()
}

// Finish stamps the completion time with a terminal status and optional
// error message.
func (j *MigrationJob) Finish(status, errorMessage string) {
	now := time.Now().UTC()
	j.status = status
	j.errorMessage = errorMessage
	j.completedAt = &now
	j.Touch()
}

func (j *MigrationJob) Validate() error {
	if j.sourceService == "" || j.targetService == "" {
		return fmt.Errorf("%w: migration job requires source and target services", shared.ErrInvalidInput)
	}
	switch j.status {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: unknown migration status %q", shared.ErrInvalidInput, j.status)
	}
}
