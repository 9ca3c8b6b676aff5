package model

// Customer is the read-only view of the customer collaborator the order engine needs.
type Customer struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	IsActive bool   `db:"is_active" json:"is_active"`
}
