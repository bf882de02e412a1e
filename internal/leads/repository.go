package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cgvrzon/arynstal/internal/audit"
)

// Repository defines the interface for lead storage. Implementations must
// treat Create and Update as single logical units: the lead row, its images
// and the matching audit entries commit or roll back together.
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest, imagePaths []string) (*Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams, actor *audit.Actor) (*Lead, error)
	AddImage(ctx context.Context, leadID uuid.UUID, imagePath string) (*Image, error)
	ListImages(ctx context.Context, leadID uuid.UUID) ([]*Image, error)
	Logs(ctx context.Context, leadID uuid.UUID, limit int) ([]audit.Entry, error)
}

// InMemoryRepository is an in-memory Repository used in tests and local
// development. Audit semantics mirror the Postgres implementation.
type InMemoryRepository struct {
	mu     sync.RWMutex
	leads  map[uuid.UUID]*Lead
	images map[uuid.UUID][]*Image
	logs   map[uuid.UUID][]audit.Entry

	// StaffNames resolves assignment ids to display names in audit entries.
	StaffNames map[uuid.UUID]string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:      make(map[uuid.UUID]*Lead),
		images:     make(map[uuid.UUID][]*Image),
		logs:       make(map[uuid.UUID][]audit.Entry),
		StaffNames: make(map[uuid.UUID]string),
	}
}

// Create validates the request and stores a new lead with its images and a
// creation audit entry.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest, imagePaths []string) (*Lead, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(imagePaths) > MaxImagesPerLead {
		return nil, FieldError("images", "a lead cannot have more than 5 images")
	}

	now := time.Now().UTC()
	lead := &Lead{
		ID:               uuid.New(),
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Location:         req.Location,
		ServiceID:        req.ServiceID,
		Message:          req.Message,
		Source:           req.Source,
		Status:           StatusNew,
		Notes:            "",
		PrivacyAccepted:  req.PrivacyAccepted,
		IPAddress:        req.IPAddress,
		UserAgent:        req.UserAgent,
		PreferredContact: req.PreferredContact,
		Urgency:          req.Urgency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.leads[lead.ID] = lead
	for _, path := range imagePaths {
		r.images[lead.ID] = append(r.images[lead.ID], &Image{
			ID:         uuid.New(),
			LeadID:     lead.ID,
			ImagePath:  path,
			UploadedAt: now,
		})
	}
	r.appendLog(lead.ID, audit.Entry{
		LeadID:   lead.ID,
		UserID:   actorID(req.Actor),
		Action:   audit.ActionCreated,
		NewValue: "Lead created from " + req.Source.Display(),
	})

	out := *lead
	return &out, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	out := *lead
	return &out, nil
}

// List returns leads matching the filter, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Lead
	for _, lead := range r.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if filter.Urgency != "" && lead.Urgency != filter.Urgency {
			continue
		}
		out := *lead
		all = append(all, &out)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= len(all) {
		return nil, nil
	}
	end := filter.Offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

// Update applies a partial staff edit, recording one audit entry per changed
// watched field attributed to the actor.
func (r *InMemoryRepository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams, actor *audit.Actor) (*Lead, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}

	before := audit.Snapshot{
		Status:     lead.Status.Display(),
		AssignedTo: r.assignedDisplay(lead.AssignedToID),
		Notes:      lead.Notes,
	}

	applyUpdate(lead, params)
	lead.UpdatedAt = time.Now().UTC()

	after := audit.Snapshot{
		Status:     lead.Status.Display(),
		AssignedTo: r.assignedDisplay(lead.AssignedToID),
		Notes:      lead.Notes,
	}

	if before.Status != after.Status {
		r.appendLog(id, audit.Entry{LeadID: id, UserID: actorID(actor), Action: audit.ActionStatusChanged, OldValue: before.Status, NewValue: after.Status})
	}
	if before.AssignedTo != after.AssignedTo {
		r.appendLog(id, audit.Entry{LeadID: id, UserID: actorID(actor), Action: audit.ActionAssigned, OldValue: before.AssignedTo, NewValue: after.AssignedTo})
	}
	if before.Notes != after.Notes && after.Notes != "" {
		r.appendLog(id, audit.Entry{LeadID: id, UserID: actorID(actor), Action: audit.ActionNoteAdded, OldValue: before.Notes, NewValue: after.Notes})
	}

	out := *lead
	return &out, nil
}

// AddImage attaches one more image, rejecting the sixth.
func (r *InMemoryRepository) AddImage(ctx context.Context, leadID uuid.UUID, imagePath string) (*Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[leadID]; !ok {
		return nil, ErrLeadNotFound
	}
	if len(r.images[leadID]) >= MaxImagesPerLead {
		return nil, FieldError("images", "a lead cannot have more than 5 images")
	}
	img := &Image{
		ID:         uuid.New(),
		LeadID:     leadID,
		ImagePath:  imagePath,
		UploadedAt: time.Now().UTC(),
	}
	r.images[leadID] = append(r.images[leadID], img)
	out := *img
	return &out, nil
}

// ListImages returns a lead's images in upload order.
func (r *InMemoryRepository) ListImages(ctx context.Context, leadID uuid.UUID) ([]*Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	imgs := r.images[leadID]
	out := make([]*Image, len(imgs))
	for i, img := range imgs {
		c := *img
		out[i] = &c
	}
	return out, nil
}

// Logs returns a lead's audit trail, newest first.
func (r *InMemoryRepository) Logs(ctx context.Context, leadID uuid.UUID, limit int) ([]audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := append([]audit.Entry(nil), r.logs[leadID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *InMemoryRepository) appendLog(leadID uuid.UUID, e audit.Entry) {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	r.logs[leadID] = append(r.logs[leadID], e)
}

func (r *InMemoryRepository) assignedDisplay(id *uuid.UUID) string {
	if id == nil {
		return audit.Unassigned
	}
	if name, ok := r.StaffNames[*id]; ok {
		return name
	}
	return id.String()
}

func applyUpdate(lead *Lead, params UpdateLeadParams) {
	if params.Status != nil {
		lead.Status = *params.Status
	}
	if params.ClearAssignment {
		lead.AssignedToID = nil
	} else if params.AssignedToID != nil {
		lead.AssignedToID = params.AssignedToID
	}
	if params.Notes != nil {
		lead.Notes = *params.Notes
	}
	if params.Location != nil {
		lead.Location = *params.Location
	}
	if params.ClearService {
		lead.ServiceID = nil
	} else if params.ServiceID != nil {
		lead.ServiceID = params.ServiceID
	}
	if params.Urgency != nil {
		lead.Urgency = *params.Urgency
	}
	if params.PreferredContact != nil {
		lead.PreferredContact = *params.PreferredContact
	}
}

func actorID(a *audit.Actor) *uuid.UUID {
	if a == nil {
		return nil
	}
	id := a.ID
	return &id
}
