package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stemsi/classroom-backend/internal/model"
)

func TestLocalBusFanOut(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, _ := bus.Subscribe(ctx)
	b, _ := bus.Subscribe(ctx)

	ev := model.Event{Type: model.EventRequestApproved, RequestID: 1, StudentID: 7, ClassID: 3}
	if err := bus.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for name, ch := range map[string]<-chan model.Event{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got.Type != ev.Type || got.RequestID != 1 {
				t.Errorf("%s received %+v", name, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s received nothing", name)
		}
	}
}

func TestLocalBusClosesOnCancel(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := bus.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after the subscriber left must not panic.
	if err := bus.Publish(context.Background(), model.Event{Type: model.EventRequestCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestMemoryActivityLog(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryActivityLog(3)

	for i, id := range []string{"a", "b", "b", "c", "d"} {
		if err := log.Append(ctx, model.Event{ID: id, Type: model.EventRequestCreated, ClassID: i}); err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}

	got, err := log.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	var ids []string
	for _, ev := range got {
		ids = append(ids, ev.ID)
	}
	if want := "d,c,b"; strings.Join(ids, ",") != want {
		t.Errorf("Recent ids = %v, want %s", ids, want)
	}

	top, _ := log.Recent(ctx, 1)
	if len(top) != 1 || top[0].ID != "d" {
		t.Errorf("Recent(1) = %+v", top)
	}

	// "a" was evicted, so it is accepted again.
	_ = log.Append(ctx, model.Event{ID: "a"})
	again, _ := log.Recent(ctx, 1)
	if again[0].ID != "a" {
		t.Errorf("evicted id was not re-accepted: %+v", again)
	}
}
