package response

import "cinema-ops/internal/data/entity"

type AuditoriumResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	SeatCount int           `json:"seat_count"`
	Rows      []RowResponse `json:"rows,omitempty"`
}

type RowResponse struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Category string         `json:"category"`
	Seats    []SeatResponse `json:"seats"`
}

type SeatResponse struct {
	ID     string  `json:"id"`
	Number int     `json:"number"`
	Price  float64 `json:"price"`
}

func AuditoriumToResponse(auditorium *entity.Auditorium) *AuditoriumResponse {
	resp := &AuditoriumResponse{
		ID:   auditorium.ID.String(),
		Name: auditorium.Name,
	}

	for _, row := range auditorium.Rows {
		rowResp := RowResponse{
			ID:       row.ID.String(),
			Label:    row.Label,
			Category: string(row.Category),
		}
		for _, seat := range row.Seats {
			rowResp.Seats = append(rowResp.Seats, SeatResponse{
				ID:     seat.ID.String(),
				Number: seat.Number,
				Price:  seat.Price,
			})
			resp.SeatCount++
		}
		resp.Rows = append(resp.Rows, rowResp)
	}

	return resp
}
