//go:build integration

package employee

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"facetrack/internal/model"
	"facetrack/internal/store"
)

func setupTestContainer(t *testing.T) (*store.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := store.NewDB(connString)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to connect to database: %v", err)
	}

	cleanup := func() {
		db.Close()
		container.Terminate(ctx)
	}

	return db, cleanup
}

func strptr(s string) *string { return &s }

func TestRepositoryIntegration(t *testing.T) {
	db, cleanup := setupTestContainer(t)
	if db == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewRepository(db.Client)

	t.Run("CreateAndGet", func(t *testing.T) {
		e := model.Employee{
			EmployeeID: "emp-create",
			Name:       strptr("Dana"),
			Role:       strptr("Engineer"),
			ImagePath:  "https://example.com/dana.jpg",
			Tasks:      []string{"onboarding"},
		}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Failed to create employee: %v", err)
		}

		got, err := repo.Get(ctx, "emp-create")
		if err != nil {
			t.Fatalf("Failed to get employee: %v", err)
		}
		if got == nil {
			t.Fatal("Expected employee, got nil")
		}
		if got.Name == nil || *got.Name != "Dana" {
			t.Errorf("Expected name 'Dana', got %v", got.Name)
		}
		if !reflect.DeepEqual(got.Tasks, []string{"onboarding"}) {
			t.Errorf("Expected tasks [onboarding], got %v", got.Tasks)
		}

		missing, err := repo.Get(ctx, "emp-nope")
		if err != nil {
			t.Fatalf("Failed to get missing employee: %v", err)
		}
		if missing != nil {
			t.Errorf("Expected nil for missing employee, got %+v", missing)
		}
	})

	t.Run("ListPaginationPastBatchSize", func(t *testing.T) {
		// Enough rows that List must fetch three pages. Timestamps are
		// spaced out so creation order is unambiguous.
		base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
		const total = 2*scanBatch + 17
		for i := 0; i < total; i++ {
			e := model.Employee{
				EmployeeID: fmt.Sprintf("scan-%04d", i),
				Name:       strptr(fmt.Sprintf("Employee %d", i)),
				CreatedAt:  base.Add(time.Duration(i) * time.Second),
			}
			if err := repo.Create(ctx, e); err != nil {
				t.Fatalf("Failed to create employee %d: %v", i, err)
			}
		}

		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("Failed to list employees: %v", err)
		}

		var scanned []model.Employee
		for _, e := range all {
			if len(e.EmployeeID) > 5 && e.EmployeeID[:5] == "scan-" {
				scanned = append(scanned, e)
			}
		}
		if len(scanned) != total {
			t.Fatalf("Expected %d employees, got %d", total, len(scanned))
		}
		for i, e := range scanned {
			want := fmt.Sprintf("scan-%04d", i)
			if e.EmployeeID != want {
				t.Fatalf("Employee %d: expected id %q, got %q", i, want, e.EmployeeID)
			}
		}
	})

	t.Run("AddTaskOrdering", func(t *testing.T) {
		if err := repo.Create(ctx, model.Employee{EmployeeID: "emp-tasks"}); err != nil {
			t.Fatalf("Failed to create employee: %v", err)
		}
		for _, task := range []string{"review", "deploy", "review"} {
			if err := repo.AddTask(ctx, "emp-tasks", task); err != nil {
				t.Fatalf("Failed to add task %q: %v", task, err)
			}
		}

		got, err := repo.Get(ctx, "emp-tasks")
		if err != nil {
			t.Fatalf("Failed to get employee: %v", err)
		}
		want := []string{"review", "deploy", "review"}
		if !reflect.DeepEqual(got.Tasks, want) {
			t.Errorf("Expected tasks %v, got %v", want, got.Tasks)
		}
	})

	t.Run("AddTaskMissingEmployee", func(t *testing.T) {
		if err := repo.AddTask(ctx, "emp-nope", "orphan"); err != nil {
			t.Fatalf("Expected no error for missing employee, got %v", err)
		}
		got, err := repo.Get(ctx, "emp-nope")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got != nil {
			t.Errorf("Expected missing employee to stay missing, got %+v", got)
		}
	})

	t.Run("RemoveTaskFirstMatchOnly", func(t *testing.T) {
		if err := repo.RemoveTask(ctx, "emp-tasks", "review"); err != nil {
			t.Fatalf("Failed to remove task: %v", err)
		}

		got, err := repo.Get(ctx, "emp-tasks")
		if err != nil {
			t.Fatalf("Failed to get employee: %v", err)
		}
		want := []string{"deploy", "review"}
		if !reflect.DeepEqual(got.Tasks, want) {
			t.Errorf("Expected tasks %v, got %v", want, got.Tasks)
		}
	})

	t.Run("RemoveTaskMissingValue", func(t *testing.T) {
		if err := repo.RemoveTask(ctx, "emp-tasks", "not-there"); err != nil {
			t.Fatalf("Expected no error for missing task, got %v", err)
		}
		got, err := repo.Get(ctx, "emp-tasks")
		if err != nil {
			t.Fatalf("Failed to get employee: %v", err)
		}
		want := []string{"deploy", "review"}
		if !reflect.DeepEqual(got.Tasks, want) {
			t.Errorf("Expected tasks unchanged %v, got %v", want, got.Tasks)
		}
	})

	t.Run("RemoveTaskMissingEmployee", func(t *testing.T) {
		if err := repo.RemoveTask(ctx, "emp-nope", "anything"); err != nil {
			t.Fatalf("Expected no error for missing employee, got %v", err)
		}
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		if err := repo.Delete(ctx, "emp-create"); err != nil {
			t.Fatalf("Failed to delete employee: %v", err)
		}
		got, err := repo.Get(ctx, "emp-create")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got != nil {
			t.Errorf("Expected employee gone, got %+v", got)
		}
		if err := repo.Delete(ctx, "emp-create"); err != nil {
			t.Fatalf("Expected no error deleting twice, got %v", err)
		}
	})
}
