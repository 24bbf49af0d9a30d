package contacts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"brandbuzz/internal/providers"
	"brandbuzz/pkg/logger"
	"brandbuzz/pkg/utils"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Auditor records contact removals. audit.Service satisfies it.
type Auditor interface {
	LogContactDeleted(ctx context.Context, userID, contactID string) error
}

type Service struct {
	repo  Repository
	audit Auditor
	clock func() time.Time
}

func NewService(repo Repository, audit Auditor) *Service {
	return &Service{repo: repo, audit: audit, clock: time.Now}
}

// Input is a contact as submitted by a client.
type Input struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Phone  string   `json:"phone"`
	Mobile string   `json:"mobile"`
	Group  string   `json:"group"`
	Tags   []string `json:"tags"`
}

// ImportError explains why one row of a bulk import was skipped.
type ImportError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Created []Contact     `json:"created"`
	Skipped []ImportError `json:"skipped"`
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (Contact, error) {
	if userID == "" {
		return Contact{}, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	c, err := s.build(userID, in)
	if err != nil {
		return Contact{}, err
	}
	if err := s.repo.InsertMany(ctx, []*Contact{&c}); err != nil {
		return Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

// Import adds every valid row and reports the rest; one bad row does not
// fail the batch.
func (s *Service) Import(ctx context.Context, userID string, rows []Input) (ImportResult, error) {
	if userID == "" {
		return ImportResult{}, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	if len(rows) == 0 {
		return ImportResult{}, fmt.Errorf("%w: contacts are required", ErrInvalidArgument)
	}

	res := ImportResult{Created: []Contact{}, Skipped: []ImportError{}}
	batch := make([]*Contact, 0, len(rows))
	for i, in := range rows {
		c, err := s.build(userID, in)
		if err != nil {
			res.Skipped = append(res.Skipped, ImportError{Index: i, Reason: strings.TrimPrefix(err.Error(), ErrInvalidArgument.Error()+": ")})
			continue
		}
		batch = append(batch, &c)
	}
	if err := s.repo.InsertMany(ctx, batch); err != nil {
		return ImportResult{}, fmt.Errorf("insert contacts: %w", err)
	}
	for _, c := range batch {
		res.Created = append(res.Created, *c)
	}
	logger.From(ctx).Info("contacts imported", "user_id", userID, "created", len(res.Created), "skipped", len(res.Skipped))
	return res, nil
}

func (s *Service) build(userID string, in Input) (Contact, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Contact{}, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	phone := in.Phone
	if phone == "" {
		phone = in.Mobile
	}
	phone = NormalizePhone(phone)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Contact{}, err
	}
	if phone == "" && email == "" {
		return Contact{}, fmt.Errorf("%w: phone or email is required", ErrInvalidArgument)
	}

	now := s.clock().UTC()
	return Contact{
		UserID:    userID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Group:     strings.TrimSpace(in.Group),
		Tags:      cleanTags(in.Tags),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type ListQuery struct {
	UserID string
	Group  string
	Search string
	Page   int
	Limit  int
}

// Page is one page of contacts with its pagination block.
type Page struct {
	Contacts   []Contact `json:"contacts"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int64     `json:"total"`
	TotalPages int       `json:"totalPages"`
}

func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	if q.UserID == "" {
		return Page{}, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	skip, size, page, limit := utils.Page(q.Page, q.Limit)
	cs, total, err := s.repo.List(ctx, Filter{
		UserID: q.UserID,
		Group:  strings.TrimSpace(q.Group),
		Search: strings.TrimSpace(q.Search),
		Skip:   skip,
		Limit:  size,
	})
	if err != nil {
		return Page{}, err
	}
	return Page{
		Contacts:   cs,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: utils.TotalPages(total, limit),
	}, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Contact, error) {
	if userID == "" || id == "" {
		return Contact{}, fmt.Errorf("%w: id and userId are required", ErrInvalidArgument)
	}
	return s.repo.FindByID(ctx, userID, id)
}

func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (Contact, error) {
	if userID == "" || id == "" {
		return Contact{}, fmt.Errorf("%w: id and userId are required", ErrInvalidArgument)
	}
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		if n == "" {
			return Contact{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
		}
		p.Name = &n
	}
	if p.Phone != nil {
		n := NormalizePhone(*p.Phone)
		p.Phone = &n
	}
	if p.Email != nil {
		e, err := normalizeEmail(*p.Email)
		if err != nil {
			return Contact{}, err
		}
		p.Email = &e
	}
	if p.Tags != nil {
		t := cleanTags(*p.Tags)
		p.Tags = &t
	}
	return s.repo.Update(ctx, userID, id, p)
}

// Delete soft-deletes a contact. Message logs that reference it are kept.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return fmt.Errorf("%w: id and userId are required", ErrInvalidArgument)
	}
	if err := s.repo.SoftDelete(ctx, userID, id); err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.LogContactDeleted(ctx, userID, id); err != nil {
			logger.From(ctx).Error("audit contact deletion failed", "contact_id", id, "err", err)
		}
	}
	return nil
}

// Resolve returns recipients for a send: active contacts of userID, chosen
// by ids or else by group, that have an address for the channel.
func (s *Service) Resolve(ctx context.Context, userID string, ids []string, group string, ch providers.Channel) ([]Recipient, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	f := Filter{UserID: userID}
	switch {
	case len(ids) > 0:
		f.IDs = dedupe(ids)
	case strings.TrimSpace(group) != "":
		f.Group = strings.TrimSpace(group)
	default:
		return nil, fmt.Errorf("%w: recipients or group is required", ErrInvalidArgument)
	}

	cs, _, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]Recipient, 0, len(cs))
	for _, c := range cs {
		addr := AddressFor(c, ch)
		if addr == "" {
			continue
		}
		out = append(out, Recipient{ContactID: c.ID.Hex(), Name: c.Name, Address: addr})
	}
	return out, nil
}

// AddressFor picks the contact field a channel sends to.
func AddressFor(c Contact, ch providers.Channel) string {
	switch {
	case ch.UsesPhone():
		return c.Phone
	case ch == providers.ChannelEmail:
		return c.Email
	default:
		return ""
	}
}

// NormalizePhone keeps digits and a single leading plus sign.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}

func normalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("%w: invalid email %q", ErrInvalidArgument, s)
	}
	return s, nil
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
