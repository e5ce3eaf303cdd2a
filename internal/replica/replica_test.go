package replica

import (
	"testing"

	"github.com/yourorg/taskhub/internal/domain"
)

func TestForcedLogoutWhenAccountDisappears(t *testing.T) {
	r := New(nil)
	r.SetUsers([]domain.User{
		{ID: 1, Name: "Sarah Johnson", Email: "sarah@example.com"},
		{ID: 2, Name: "John Smith", Email: "john@example.com"},
	})
	r.Login(domain.User{ID: 1, Name: "Sarah Johnson", Email: "sarah@example.com"})

	// An update that still contains the account keeps the session.
	r.SetUsers([]domain.User{
		{ID: 1, Name: "Sarah Johnson", Email: "sarah@example.com"},
	})
	if r.State() != Authenticated {
		t.Fatal("session dropped while account still exists")
	}

	// The account vanishing from a broadcast forces a logout.
	r.SetUsers([]domain.User{
		{ID: 2, Name: "John Smith", Email: "john@example.com"},
	})
	if r.State() != Unauthenticated {
		t.Fatal("expected forced logout")
	}
	if r.Email() != "" {
		t.Fatalf("email not cleared: %q", r.Email())
	}
}

func TestForcedLogoutIgnoredWhenLoggedOut(t *testing.T) {
	r := New(nil)
	r.SetUsers([]domain.User{{ID: 1, Email: "sarah@example.com"}})
	r.SetUsers(nil)
	if r.State() != Unauthenticated {
		t.Fatal("unexpected state change")
	}
}

func TestOpenTaskClosedOnDelete(t *testing.T) {
	r := New(nil)
	r.SetTasks([]domain.Task{{ID: 10, Title: "Fix bug"}, {ID: 11, Title: "Ship release"}})

	if !r.OpenTask(10) {
		t.Fatal("failed to open existing task")
	}
	if r.OpenTaskID() != 10 {
		t.Fatalf("open task id = %d", r.OpenTaskID())
	}

	// A broadcast still containing the task keeps the view open.
	r.SetTasks([]domain.Task{{ID: 10, Title: "Fix bug (renamed)"}})
	if r.OpenTaskID() != 10 {
		t.Fatal("view closed while task still exists")
	}

	// The task disappearing closes the view.
	r.SetTasks([]domain.Task{{ID: 11, Title: "Ship release"}})
	if r.OpenTaskID() != 0 {
		t.Fatal("expected view to close when the open task was deleted")
	}
}

func TestOpenTaskRejectsUnknownID(t *testing.T) {
	r := New(nil)
	r.SetTasks([]domain.Task{{ID: 10}})
	if r.OpenTask(999) {
		t.Fatal("opened a task that is not in the replica")
	}
	if r.OpenTaskID() != 0 {
		t.Fatal("open task id set for unknown task")
	}
}

func TestVisibleTasksFiltersAndSorts(t *testing.T) {
	r := New(nil)
	r.SetTasks(sampleTasks())

	got := r.VisibleTasks(StatusAll, "sarah")
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %+v", got)
	}
}

func TestGettersReturnCopies(t *testing.T) {
	r := New(nil)
	r.SetTasks([]domain.Task{{ID: 1, Title: "Fix bug"}})

	tasks := r.Tasks()
	tasks[0].Title = "mutated"

	if r.Tasks()[0].Title != "Fix bug" {
		t.Fatal("replica state leaked through getter")
	}
}

func TestLogoutClearsOpenView(t *testing.T) {
	r := New(nil)
	r.SetTasks([]domain.Task{{ID: 1}})
	r.Login(domain.User{Email: "sarah@example.com"})
	r.OpenTask(1)

	r.Logout()
	if r.OpenTaskID() != 0 {
		t.Fatal("open view survived logout")
	}
}
