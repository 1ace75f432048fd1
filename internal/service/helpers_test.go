package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	store      *memory.Store
	events     *recordingPublisher
	requests   *ClassRequestService
	attendance *AttendanceService
	classes    *ClassService
	students   *StudentService
	users      *UserService
	reports    *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	events := &recordingPublisher{}
	log := zerolog.Nop()
	return &fixture{
		store:      store,
		events:     events,
		requests:   NewClassRequestService(store, events, log),
		attendance: NewAttendanceService(store, events, log),
		classes:    NewClassService(store),
		students:   NewStudentService(store, 1024),
		users:      NewUserService(store, 4),
		reports:    NewReportService(store),
	}
}

func (f *fixture) student(t *testing.T, first string) *model.Student {
	t.Helper()
	st := model.NewStudent(first, "Tester", "1 Main St", nil, "", "")
	if err := f.students.Create(context.Background(), st); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return st
}

func (f *fixture) class(t *testing.T, name string) *model.Class {
	t.Helper()
	c := model.NewClass(name, "", "Mon 10:00-12:00", nil, nil)
	if err := f.classes.Create(context.Background(), c); err != nil {
		t.Fatalf("create class: %v", err)
	}
	return c
}

func (f *fixture) queries() *repository.Queries {
	return f.store.Queries()
}

func assertErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}
