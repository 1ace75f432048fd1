package memory

import (
	"context"
	"fmt"

	"github.com/stemsi/classroom-backend/internal/model"
	"github.com/stemsi/classroom-backend/internal/repository"
)

type studentRepo struct{ d *db }

func (r *studentRepo) GetByID(_ context.Context, id int) (s *model.Student, err error) {
	err = r.d.with(func(st *state) error {
		s, err = get(st.students, id)
		return err
	})
	return s, err
}

func (r *studentRepo) List(_ context.Context) (out []model.Student, err error) {
	err = r.d.with(func(st *state) error {
		out = st.students.rows(nil)
		for i := range out {
			out[i].ProfilePic = nil
		}
		return nil
	})
	return out, err
}

func (r *studentRepo) ListByClass(_ context.Context, classID int) (out []model.Student, err error) {
	err = r.d.with(func(st *state) error {
		out = st.students.rows(func(s model.Student) bool {
			_, ok := st.members[membership{classID, s.ID}]
			return ok
		})
		for i := range out {
			out[i].ProfilePic = nil
		}
		return nil
	})
	return out, err
}

func (r *studentRepo) Save(_ context.Context, s *model.Student) error {
	return r.d.with(func(st *state) error {
		if s.ID == 0 {
			s.ID = st.nextID()
		} else if _, ok := st.students[s.ID]; !ok {
			return repository.ErrNotFound
		}
		st.students[s.ID] = *s
		return nil
	})
}

func (r *studentRepo) Delete(_ context.Context, id int) error {
	return r.d.with(func(st *state) error {
		if _, ok := st.students[id]; !ok {
			return repository.ErrNotFound
		}
		for _, cr := range st.requests {
			if cr.StudentID == id {
				return fmt.Errorf("%w: class_requests_student_id_fkey", repository.ErrReferenced)
			}
		}
		for _, a := range st.attendance {
			if a.StudentID == id {
				return fmt.Errorf("%w: attendance_student_id_fkey", repository.ErrReferenced)
			}
		}
		delete(st.students, id)
		for m := range st.members {
			if m.studentID == id {
				delete(st.members, m)
			}
		}
		for uid, u := range st.users {
			if u.StudentID != nil && *u.StudentID == id {
				delete(st.users, uid)
			}
		}
		return nil
	})
}

type classRepo struct{ d *db }

func (r *classRepo) GetByID(_ context.Context, id int) (c *model.Class, err error) {
	err = r.d.with(func(st *state) error {
		c, err = get(st.classes, id)
		return err
	})
	return c, err
}

func (r *classRepo) List(_ context.Context) (out []model.Class, err error) {
	err = r.d.with(func(st *state) error {
		out = st.classes.rows(nil)
		return nil
	})
	return out, err
}

func (r *classRepo) listByMembership(studentID int, enrolled bool) (out []model.Class, err error) {
	err = r.d.with(func(st *state) error {
		out = st.classes.rows(func(c model.Class) bool {
			_, ok := st.members[membership{c.ID, studentID}]
			return ok == enrolled
		})
		return nil
	})
	return out, err
}

func (r *classRepo) ListByStudent(_ context.Context, studentID int) ([]model.Class, error) {
	return r.listByMembership(studentID, true)
}

func (r *classRepo) ListNotEnrolled(_ context.Context, studentID int) ([]model.Class, error) {
	return r.listByMembership(studentID, false)
}

func (r *classRepo) Save(_ context.Context, c *model.Class) error {
	return r.d.with(func(st *state) error {
		if c.ID == 0 {
			c.ID = st.nextID()
		} else if _, ok := st.classes[c.ID]; !ok {
			return repository.ErrNotFound
		}
		st.classes[c.ID] = *c
		return nil
	})
}

func (r *classRepo) Delete(_ context.Context, id int) error {
	return r.d.with(func(st *state) error {
		if _, ok := st.classes[id]; !ok {
			return repository.ErrNotFound
		}
		for _, cr := range st.requests {
			if cr.ClassID == id {
				return fmt.Errorf("%w: class_requests_class_id_fkey", repository.ErrReferenced)
			}
		}
		for _, a := range st.attendance {
			if a.ClassID == id {
				return fmt.Errorf("%w: attendance_class_id_fkey", repository.ErrReferenced)
			}
		}
		delete(st.classes, id)
		for m := range st.members {
			if m.classID == id {
				delete(st.members, m)
			}
		}
		return nil
	})
}

type userRepo struct{ d *db }

func (r *userRepo) GetByID(_ context.Context, id int) (u *model.User, err error) {
	err = r.d.with(func(st *state) error {
		u, err = get(st.users, id)
		return err
	})
	return u, err
}

func (r *userRepo) find(keep func(model.User) bool) (u *model.User, err error) {
	err = r.d.with(func(st *state) error {
		found := st.users.rows(keep)
		if len(found) == 0 {
			return repository.ErrNotFound
		}
		u = &found[0]
		return nil
	})
	return u, err
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *userRepo) GetByStudentID(_ context.Context, studentID int) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.StudentID != nil && *u.StudentID == studentID })
}

func (r *userRepo) List(_ context.Context) (out []model.User, err error) {
	err = r.d.with(func(st *state) error {
		out = st.users.rows(nil)
		return nil
	})
	return out, err
}

func (r *userRepo) Save(_ context.Context, u *model.User) error {
	return r.d.with(func(st *state) error {
		if u.ID != 0 {
			if _, ok := st.users[u.ID]; !ok {
				return repository.ErrNotFound
			}
		}
		for id, other := range st.users {
			if id == u.ID {
				continue
			}
			if other.Username == u.Username {
				return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
			}
			if u.StudentID != nil && other.StudentID != nil && *other.StudentID == *u.StudentID {
				return fmt.Errorf("%w: users_student_id_key", repository.ErrDuplicate)
			}
		}
		if u.StudentID != nil {
			if _, ok := st.students[*u.StudentID]; !ok {
				return fmt.Errorf("%w: users_student_id_fkey", repository.ErrReferenced)
			}
		}
		if u.ID == 0 {
			u.ID = st.nextID()
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id int) error {
	return r.d.with(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.users, id)
		return nil
	})
}
