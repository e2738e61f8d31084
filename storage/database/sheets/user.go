package sheetsdb

import (
	"context"

	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

type userRepository struct {
	st *Store
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func userCells(u user.User) cells {
	return cells{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"role":          u.Role,
		"status":        u.Status,
		"password_hash": string(u.PasswordHash),
		"created_at":    formatTime(u.CreatedAt),
		"updated_at":    formatTime(u.UpdatedAt),
		"last_login":    formatTime(u.LastLogin),
	}
}

func decodeUser(d *decoder) user.User {
	return user.User{
		ID:           d.String("id"),
		Name:         d.String("name"),
		Email:        d.String("email"),
		Role:         d.String("role"),
		Status:       d.String("status"),
		PasswordHash: []byte(d.String("password_hash")),
		CreatedAt:    d.Time("created_at"),
		UpdatedAt:    d.Time("updated_at"),
		LastLogin:    d.Time("last_login"),
	}
}

func (repo *userRepository) query(ctx context.Context) ([]user.User, error) {
	records, err := repo.st.rows(ctx, usersTable)
	if err != nil {
		return nil, err
	}
	return decodeAll(usersTable, records, decodeUser)
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	users, err := repo.query(ctx)
	if err != nil {
		return err
	}
	for _, usr := range users {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return user.User{}, err
	}
	defer release()

	users, err := repo.query(ctx)
	if err != nil {
		return user.User{}, err
	}
	for _, u := range users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	if err = repo.st.insert(ctx, usersTable, userCells(usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) get(ctx context.Context, col, val string) (user.User, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return user.User{}, err
	}
	defer release()

	records, err := repo.st.rows(ctx, usersTable)
	if err != nil {
		return user.User{}, err
	}
	i := find(records, eq(col, val))
	if i < 0 {
		return user.User{}, user.ErrNotFound
	}
	return decodeOne(usersTable, records[i], decodeUser)
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.get(ctx, "id", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.get(ctx, "email", email)
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	all, err := repo.query(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0)
	for _, usr := range all {
		if filter.Match(usr) {
			users = append(users, usr)
		}
	}
	user.SortUsers(users)
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return user.User{}, err
	}
	defer release()

	records, err := repo.st.rows(ctx, usersTable)
	if err != nil {
		return user.User{}, err
	}
	i := find(records, eq("id", usr.ID))
	if i < 0 {
		return user.User{}, user.ErrNotFound
	}
	if err = repo.st.update(ctx, usersTable, records[i].num, userCells(usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) CountUsers(ctx context.Context) (int, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	records, err := repo.st.rows(ctx, usersTable)
	return len(records), err
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}
