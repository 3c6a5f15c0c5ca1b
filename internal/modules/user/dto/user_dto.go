package dto

import "anoa.com/housecup/internal/entity"

// Identity is what the external identity provider asserts about a caller.
type Identity struct {
	Subject  string
	Username string
	Email    string
	House    entity.House
	Role     string
}
