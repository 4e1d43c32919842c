package activity

import (
	"context"
	"testing"

	"github.com/viefmoon/bite-sub001/internal/models"
)

func TestMemoryStoreKeepsNewestFirst(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	kinds := []models.ActivityType{
		models.ActivityPullChanges,
		models.ActivityRestaurantData,
		models.ActivityOrderStatus,
		models.ActivityPullChanges,
	}
	for i, kind := range kinds {
		item := NewActivity(kind, models.DirectionIn, i%2 == 0)
		item.ID = string(rune('a' + i))
		if err := store.Append(ctx, item); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected ring to cap at 3, got %d", len(got))
	}
	want := []string{"d", "c", "b"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}

	top, _ := store.Recent(ctx, 1)
	if len(top) != 1 || top[0].ID != "d" {
		t.Fatalf("expected newest only, got %+v", top)
	}
}

func TestMemoryStoreEmpty(t *testing.T) {
	store := NewMemoryStore(0)
	got, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty feed, got %d", len(got))
	}
}

func TestNewActivityStampsIDAndTime(t *testing.T) {
	item := NewActivity(models.ActivityOrderStatus, models.DirectionOut, true)
	if item.ID == "" || item.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", item)
	}
	if item.Type != models.ActivityOrderStatus || item.Direction != models.DirectionOut || !item.Success {
		t.Fatalf("unexpected fields: %+v", item)
	}
}
