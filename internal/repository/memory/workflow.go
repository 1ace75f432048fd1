package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
)

// references reports the foreign key a row would violate, if any.
func references(st *state, studentID, classID int, table string) error {
	if _, ok := st.students[studentID]; !ok {
		return fmt.Errorf("%w: %s_student_id_fkey", repository.ErrReferenced, table)
	}
	if _, ok := st.classes[classID]; !ok {
		return fmt.Errorf("%w: %s_class_id_fkey", repository.ErrReferenced, table)
	}
	return nil
}

type requestRepo struct{ d *db }

func (r *requestRepo) GetByID(_ context.Context, id int) (cr *model.ClassRequest, err error) {
	err = r.d.with(func(st *state) error {
		cr, err = get(st.requests, id)
		return err
	})
	return cr, err
}

func (r *requestRepo) filter(keep func(model.ClassRequest) bool) (out []model.ClassRequest, err error) {
	err = r.d.with(func(st *state) error {
		out = st.requests.rows(keep)
		return nil
	})
	return out, err
}

func (r *requestRepo) List(_ context.Context) ([]model.ClassRequest, error) {
	return r.filter(nil)
}

func (r *requestRepo) ListByStudent(_ context.Context, studentID int) ([]model.ClassRequest, error) {
	return r.filter(func(cr model.ClassRequest) bool { return cr.StudentID == studentID })
}

func (r *requestRepo) ListByClass(_ context.Context, classID int) ([]model.ClassRequest, error) {
	return r.filter(func(cr model.ClassRequest) bool { return cr.ClassID == classID })
}

func (r *requestRepo) ListByStatus(_ context.Context, status model.RequestStatus) ([]model.ClassRequest, error) {
	return r.filter(func(cr model.ClassRequest) bool { return cr.Status == status })
}

func (r *requestRepo) ListByStudentAndClass(_ context.Context, studentID, classID int) ([]model.ClassRequest, error) {
	return r.filter(func(cr model.ClassRequest) bool {
		return cr.StudentID == studentID && cr.ClassID == classID
	})
}

func (r *requestRepo) HasPending(ctx context.Context, studentID, classID int) (bool, error) {
	pending, err := r.filter(func(cr model.ClassRequest) bool {
		return cr.StudentID == studentID && cr.ClassID == classID && cr.IsPending()
	})
	return len(pending) > 0, err
}

func (r *requestRepo) Save(_ context.Context, cr *model.ClassRequest) error {
	return r.d.with(func(st *state) error {
		if cr.ID != 0 {
			if _, ok := st.requests[cr.ID]; !ok {
				return repository.ErrNotFound
			}
		}
		if err := references(st, cr.StudentID, cr.ClassID, "class_requests"); err != nil {
			return err
		}
		if cr.IsPending() {
			for id, other := range st.requests {
				if id != cr.ID && other.IsPending() && other.StudentID == cr.StudentID && other.ClassID == cr.ClassID {
					return fmt.Errorf("%w: uq_class_requests_pending", repository.ErrDuplicate)
				}
			}
		}
		if cr.ID == 0 {
			cr.ID = st.nextID()
		}
		st.requests[cr.ID] = *cr
		return nil
	})
}

func (r *requestRepo) Resolve(_ context.Context, cr *model.ClassRequest) error {
	return r.d.with(func(st *state) error {
		cur, ok := st.requests[cr.ID]
		if !ok || !cur.IsPending() {
			return repository.ErrStale
		}
		cur.Status = cr.Status
		cur.ResponseDate = cr.ResponseDate
		cur.ResponseNotes = cr.ResponseNotes
		st.requests[cr.ID] = cur
		return nil
	})
}

func (r *requestRepo) Delete(_ context.Context, id int) error {
	return r.d.with(func(st *state) error {
		if _, ok := st.requests[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.requests, id)
		return nil
	})
}

type attendanceRepo struct{ d *db }

func (r *attendanceRepo) GetByID(_ context.Context, id int) (a *model.Attendance, err error) {
	err = r.d.with(func(st *state) error {
		a, err = get(st.attendance, id)
		return err
	})
	return a, err
}

// filter returns matching records ordered by date, student and id.
func (r *attendanceRepo) filter(keep func(model.Attendance) bool) (out []model.Attendance, err error) {
	err = r.d.with(func(st *state) error {
		out = st.attendance.rows(keep)
		return nil
	})
	sortAttendance(out)
	return out, err
}

func (r *attendanceRepo) List(_ context.Context) ([]model.Attendance, error) {
	return r.filter(nil)
}

func (r *attendanceRepo) ListByStudent(_ context.Context, studentID int) ([]model.Attendance, error) {
	return r.filter(func(a model.Attendance) bool { return a.StudentID == studentID })
}

func (r *attendanceRepo) ListByClass(_ context.Context, classID int) ([]model.Attendance, error) {
	return r.filter(func(a model.Attendance) bool { return a.ClassID == classID })
}

func (r *attendanceRepo) ListByStudentAndClass(_ context.Context, studentID, classID int) ([]model.Attendance, error) {
	return r.filter(func(a model.Attendance) bool { return a.StudentID == studentID && a.ClassID == classID })
}

func (r *attendanceRepo) ListByDate(_ context.Context, date model.Date) ([]model.Attendance, error) {
	return r.filter(func(a model.Attendance) bool { return a.Date.Equal(date) })
}

func (r *attendanceRepo) ListByClassAndDate(_ context.Context, classID int, date model.Date) ([]model.Attendance, error) {
	return r.filter(func(a model.Attendance) bool { return a.ClassID == classID && a.Date.Equal(date) })
}

func (r *attendanceRepo) ListByClassBetween(_ context.Context, classID int, from, to model.Date) ([]model.Attendance, error) {
	return r.filter(func(a model.Attendance) bool {
		return a.ClassID == classID && !a.Date.Before(from) && !to.Before(a.Date)
	})
}

func (r *attendanceRepo) DeleteByClassAndDate(_ context.Context, classID int, date model.Date) (n int64, err error) {
	err = r.d.with(func(st *state) error {
		for id, a := range st.attendance {
			if a.ClassID == classID && a.Date.Equal(date) {
				delete(st.attendance, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *attendanceRepo) CountPresent(ctx context.Context, studentID, classID int) (int, error) {
	records, err := r.filter(func(a model.Attendance) bool {
		return a.StudentID == studentID && a.ClassID == classID && a.Present
	})
	return len(records), err
}

func (r *attendanceRepo) CountTotal(ctx context.Context, studentID, classID int) (int, error) {
	records, err := r.ListByStudentAndClass(ctx, studentID, classID)
	return len(records), err
}

func (r *attendanceRepo) Save(_ context.Context, a *model.Attendance) error {
	return r.d.with(func(st *state) error {
		if a.ID != 0 {
			if _, ok := st.attendance[a.ID]; !ok {
				return repository.ErrNotFound
			}
		}
		if err := references(st, a.StudentID, a.ClassID, "attendance"); err != nil {
			return err
		}
		for id, other := range st.attendance {
			if id != a.ID && other.ClassID == a.ClassID && other.StudentID == a.StudentID && other.Date.Equal(a.Date) {
				return fmt.Errorf("%w: uq_attendance_session", repository.ErrDuplicate)
			}
		}
		if a.ID == 0 {
			a.ID = st.nextID()
		}
		st.attendance[a.ID] = *a
		return nil
	})
}

func (r *attendanceRepo) Delete(_ context.Context, id int) error {
	return r.d.with(func(st *state) error {
		if _, ok := st.attendance[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.attendance, id)
		return nil
	})
}

type enrollmentRepo struct{ d *db }

func (r *enrollmentRepo) Add(_ context.Context, classID, studentID int) error {
	return r.d.with(func(st *state) error {
		if err := references(st, studentID, classID, "class_students"); err != nil {
			return err
		}
		st.members[membership{classID, studentID}] = struct{}{}
		return nil
	})
}

func (r *enrollmentRepo) Remove(_ context.Context, classID, studentID int) error {
	return r.d.with(func(st *state) error {
		delete(st.members, membership{classID, studentID})
		return nil
	})
}

func (r *enrollmentRepo) IsEnrolled(_ context.Context, classID, studentID int) (ok bool, err error) {
	err = r.d.with(func(st *state) error {
		_, ok = st.members[membership{classID, studentID}]
		return nil
	})
	return ok, err
}

func (r *enrollmentRepo) ids(pick func(m membership) (int, bool)) (out []int, err error) {
	out = []int{}
	err = r.d.with(func(st *state) error {
		for m := range st.members {
			if id, ok := pick(m); ok {
				out = append(out, id)
			}
		}
		return nil
	})
	slices.Sort(out)
	return out, err
}

func (r *enrollmentRepo) ListClassIDsByStudent(_ context.Context, studentID int) ([]int, error) {
	return r.ids(func(m membership) (int, bool) { return m.classID, m.studentID == studentID })
}

func (r *enrollmentRepo) ListStudentIDsByClass(_ context.Context, classID int) ([]int, error) {
	return r.ids(func(m membership) (int, bool) { return m.studentID, m.classID == classID })
}

func sortAttendance(records []model.Attendance) {
	slices.SortFunc(records, func(a, b model.Attendance) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		if a.StudentID != b.StudentID {
			return a.StudentID - b.StudentID
		}
		return a.ID - b.ID
	})
}
