package request

type CreateAuditoriumRequest struct {
	Name string             `json:"name" validate:"required,min=1,max=100"`
	Rows []AuditoriumRowSpec `json:"rows" validate:"required,min=1,dive"`
}

type AuditoriumRowSpec struct {
	Label    string `json:"label" validate:"required,min=1,max=5"`
	Category string `json:"category" validate:"required,oneof=standard premium luxury"`
	Seats    int    `json:"seats" validate:"required,min=1,max=100"`
}
