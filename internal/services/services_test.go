package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"meetings/boardroom/internal/db/dbtest"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/phone"
	"meetings/boardroom/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFailure(t *testing.T, err error, kind services.FailureKind, message string) {
	t.Helper()
	f, ok := services.AsFailure(err)
	require.True(t, ok, "expected a failure, got %v", err)
	assert.Equal(t, kind, f.Kind)
	assert.Equal(t, message, f.Message)
}

type sentMessage struct {
	to, message, name string
}

// mockDispatcher records messages and optionally fails every send.
type mockDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *mockDispatcher) Send(ctx context.Context, to, message, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMessage{to, message, name})
	return nil
}

// memoryStore keeps objects in a map.
type memoryStore struct {
	objects map[string][]byte
	n       int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (s *memoryStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.n++
	ref := fmt.Sprintf("uploads/%d-%s", s.n, name)
	s.objects[ref] = body
	return ref, nil
}

func (s *memoryStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	body, ok := s.objects[ref]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (s *memoryStore) Delete(ctx context.Context, ref string) error {
	delete(s.objects, ref)
	return nil
}

func strPtr(s string) *string { return &s }

func TestDepartmentService(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := services.NewDepartmentService(db)

	d, err := svc.Create(ctx, services.DepartmentRequest{Name: "  Finance "})
	require.NoError(t, err)
	assert.Equal(t, "Finance", d.Name)

	_, err = svc.Create(ctx, services.DepartmentRequest{Name: "FINANCE"})
	requireFailure(t, err, services.KindConflict, "Directorate already exists")

	other, err := svc.Create(ctx, services.DepartmentRequest{Name: "Legal"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, other.ID, services.DepartmentRequest{Name: "finance"})
	requireFailure(t, err, services.KindConflict, "Directorate already exists")

	renamed, err := svc.Update(ctx, d.ID, services.DepartmentRequest{Name: "Finance", Description: strPtr("Money")})
	require.NoError(t, err, "renaming to its own name is allowed")
	assert.Equal(t, "Money", *renamed.Description)

	blocked, err := svc.SetActive(ctx, d.ID, false)
	require.NoError(t, err)
	assert.False(t, blocked.IsActive)

	require.NoError(t, svc.Delete(ctx, d.ID))
	requireFailure(t, svc.Delete(ctx, d.ID), services.KindNotFound, "Directorate does not exist")
	_, err = svc.Get(ctx, 999)
	requireFailure(t, err, services.KindNotFound, "Directorate does not exist")
}

func TestDepartmentMembership(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := services.NewDepartmentService(db)
	user := dbtest.User(t, db, "amina", false)
	d := dbtest.Department(t, db, "Audit")

	_, err := svc.AddUser(ctx, d.ID, user.ID)
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, d.ID, user.ID)
	requireFailure(t, err, services.KindConflict, "User Department already exists")

	page, err := svc.Members(ctx, d.ID, repositories.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, user.ID, page.Results[0].User.ID)

	require.NoError(t, svc.RemoveUser(ctx, d.ID, user.ID))
	requireFailure(t, svc.RemoveUser(ctx, d.ID, user.ID), services.KindNotFound, "User Department does not exist")
}

func TestCommitteeService(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := services.NewCommitteeService(db)
	user := dbtest.User(t, db, "juma", false)
	dept := dbtest.Department(t, db, "ICT")

	c, err := svc.Create(ctx, services.CommitteeRequest{Name: "Tender Board"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, services.CommitteeRequest{Name: "tender board"})
	requireFailure(t, err, services.KindConflict, "Committee already exists")

	other, err := svc.Create(ctx, services.CommitteeRequest{Name: "Ethics"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, other.ID, services.CommitteeRequest{Name: "Tender board"})
	requireFailure(t, err, services.KindConflict, "Committee name already taken")

	member, err := svc.AddMember(ctx, c.ID, user.ID)
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, c.ID, user.ID)
	requireFailure(t, err, services.KindConflict, "Committee Member already exists")
	_, err = svc.AddMember(ctx, c.ID, 999)
	requireFailure(t, err, services.KindNotFound, "User does not exist")
	require.NoError(t, svc.RemoveMember(ctx, member.ID))
	requireFailure(t, svc.RemoveMember(ctx, member.ID), services.KindNotFound, "Committee Member does not exist")

	_, err = svc.AddDepartment(ctx, c.ID, dept.ID)
	require.NoError(t, err)
	_, err = svc.AddDepartment(ctx, c.ID, dept.ID)
	requireFailure(t, err, services.KindConflict, "Committee Department already exists")
	_, err = svc.AddDepartment(ctx, 999, dept.ID)
	requireFailure(t, err, services.KindNotFound, "Committee does not exist")
	links, err := svc.Departments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.NoError(t, svc.RemoveDepartment(ctx, c.ID, dept.ID))
	requireFailure(t, svc.RemoveDepartment(ctx, c.ID, dept.ID), services.KindNotFound, "Committee Department does not exist")
}

type countingInvalidator struct{ ids []uint }

func (c *countingInvalidator) Invalidate(id uint) { c.ids = append(c.ids, id) }

func TestUserService(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	inv := &countingInvalidator{}
	svc := services.NewUserService(db, phone.NewValidator("TZ"), inv)
	finance := dbtest.Department(t, db, "Finance")
	legal := dbtest.Department(t, db, "Legal")

	req := services.UserRequest{
		FirstName:     "Neema",
		LastName:      "Mushi",
		Email:         " Neema@Example.go.tz ",
		Phone:         "0712 345 678",
		DepartmentIDs: []uint{finance.ID, legal.ID},
	}
	u, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "neema@example.go.tz", *u.Email)
	assert.Equal(t, "neema@example.go.tz", u.Username)
	assert.Equal(t, "255712345678", *u.Phone)

	profile, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, profile.Departments, 2)
	assert.Empty(t, profile.Committees)

	_, err = svc.Create(ctx, req)
	requireFailure(t, err, services.KindConflict, "User already exists")

	req.Email = "other@example.go.tz"
	req.Phone = "12345"
	_, err = svc.Create(ctx, req)
	requireFailure(t, err, services.KindValidation, "Invalid Phone Number")

	req.Phone = "+255 754 123 456"
	req.DepartmentIDs = []uint{999}
	_, err = svc.Create(ctx, req)
	requireFailure(t, err, services.KindNotFound, "Department does not exist")
	_, err = repositories.NewUserRepository(db).FindByEmail(ctx, "other@example.go.tz")
	assert.ErrorIs(t, err, repositories.ErrNotFound, "a failed create leaves nothing behind")

	updated, err := svc.Update(ctx, u.ID, services.UserRequest{
		FirstName: "Neema", LastName: "Mushi", Email: "neema@example.go.tz", Phone: "0712345678", IsStaff: true,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsStaff)

	_, err = svc.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []uint{u.ID, u.ID}, inv.ids)
}
