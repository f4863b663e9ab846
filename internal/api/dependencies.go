package api

import (
	"context"
	"time"

	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/db"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/services"
	"meetings/boardroom/internal/workers"
)

type Services struct {
	Departments *services.DepartmentService
	Committees  *services.CommitteeService
	Users       *services.UserService
	Venues      *services.VenueService
	Events      *services.EventService
	Attendees   *services.AttendeeService
	Agendas     *services.AgendaService
	Minutes     *services.MinuteService
	Documents   *services.DocumentService
	Invitations *services.InvitationService
	Credentials *services.CredentialService
	Directory   *services.DirectorySyncService
}

// DocumentSigner mints and checks download tokens for documents.
type DocumentSigner interface {
	GenerateDocumentToken(userID, documentID uint, ttl time.Duration) (string, error)
	ValidateToken(ctx context.Context, token string) (*common.SignedToken, error)
	MarkTokenAsUsed(ctx context.Context, token *common.SignedToken) error
}

// QueueStatser reports notification queue depth. It is nil when
// notifications are sent directly.
type QueueStatser interface {
	Stats(ctx context.Context) (*workers.QueueStats, error)
}

type Dependencies struct {
	Services    *Services
	Permissions *permissions.Evaluator
	Signer      DocumentSigner
	Queue       QueueStatser
	Health      db.Pinger
	// DirectoryFile is the people directory synced on demand. Empty
	// disables the endpoint.
	DirectoryFile string
	UpSince       time.Time
}
