package dto

type ReplaceRolesRequest struct {
	RolesID []uint `json:"roles_id" validate:"required,min=1"`
}

type CreateOperatorRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	RolesID   []uint `json:"roles_id" validate:"required,min=1"`
	CompanyID *uint  `json:"company_id"`
}
