package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yourorg/taskhub/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.Register(ctx, domain.User{
		Name:     "John Smith",
		Email:    "john@demo.com",
		Password: "demo123",
		Role:     domain.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an assigned user id")
	}

	user, token, err := f.users.Login(ctx, "john@demo.com", "demo123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}
	if user.ID != created.ID {
		t.Fatalf("login returned wrong user: %+v", user)
	}

	// Passwords are compared verbatim; a near-miss must fail.
	if _, _, err := f.users.Login(ctx, "john@demo.com", "Demo123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.users.Register(ctx, domain.User{Name: "A", Email: "a@x.com", Password: "p1"})
	if err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, err = f.users.Register(ctx, domain.User{Name: "B", Email: "a@x.com", Password: "p2"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	users, _ := f.store.Users(ctx)
	if len(users) != 1 {
		t.Fatalf("expected one stored user, got %d", len(users))
	}
	if users[0] != first {
		t.Fatalf("first user record changed: %+v vs %+v", users[0], first)
	}
}

func TestRegisterBroadcastsFullCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.users.Register(ctx, domain.User{Name: "A", Email: "a@x.com", Password: "p"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.users.Register(ctx, domain.User{Name: "B", Email: "b@x.com", Password: "p"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	stored, _ := f.store.Users(ctx)
	if !reflect.DeepEqual(f.bc.lastUsers(), stored) {
		t.Fatalf("broadcast payload differs from stored collection:\n%+v\n%+v", f.bc.lastUsers(), stored)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []domain.User{
		{Email: "a@x.com", Password: "p"},              // no name
		{Name: "A", Password: "p"},                     // no email
		{Name: "A", Email: "a@x.com"},                  // no password
		{Name: "A", Email: "a@x.com", Password: "p", Role: "root"}, // bad role
	}
	for i, u := range cases {
		if _, err := f.users.Register(ctx, u); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestRegisterDefaultsRole(t *testing.T) {
	f := newFixture(t)

	created, err := f.users.Register(context.Background(), domain.User{Name: "A", Email: "a@x.com", Password: "p"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Role != domain.RoleEmployee {
		t.Fatalf("expected employee role default, got %s", created.Role)
	}
}
