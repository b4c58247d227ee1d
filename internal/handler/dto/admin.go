package dto

import (
	"time"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// AddBookRequest is the body of POST /api/v1/admin/books.
type AddBookRequest struct {
	Author   string `json:"author"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Amount   int    `json:"amount"`
}

// SetAmountRequest is the body of PUT /api/v1/admin/books/{id}/amount.
type SetAmountRequest struct {
	Amount *int `json:"amount"`
}

// SetViolationsRequest is the body of PUT /api/v1/admin/users/{id}/violations.
type SetViolationsRequest struct {
	Violations *int `json:"violations"`
}

// UserView is the admin view of a library member.
type UserView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Violations  int       `json:"violations"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminCheckoutView extends CheckoutView with ownership and lateness.
type AdminCheckoutView struct {
	CheckoutView
	UserID  string `json:"user_id"`
	BookID  int64  `json:"book_id"`
	DaysOut int    `json:"days_out"`
	Overdue bool   `json:"overdue"`
}

// AdminCheckoutList wraps a list of admin checkout views.
type AdminCheckoutList struct {
	Checkouts []AdminCheckoutView `json:"checkouts"`
	Total     int                 `json:"total"`
}

// ToUserView converts a User for admin responses.
func ToUserView(u *model.User) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Violations:  u.Violations,
		HasPassword: u.HasPassword(),
		CreatedAt:   u.CreatedAt,
	}
}

// ToAdminCheckoutList converts checkouts, judging lateness at now against maxDays.
func ToAdminCheckoutList(checkouts []*model.Checkout, now time.Time, maxDays int) AdminCheckoutList {
	list := AdminCheckoutList{
		Checkouts: make([]AdminCheckoutView, 0, len(checkouts)),
		Total:     len(checkouts),
	}
	for _, c := range checkouts {
		list.Checkouts = append(list.Checkouts, AdminCheckoutView{
			CheckoutView: ToCheckoutView(c),
			UserID:       c.UserID,
			BookID:       c.BookID,
			DaysOut:      c.DaysOut(now),
			Overdue:      c.IsOverdue(now, maxDays),
		})
	}
	return list
}
