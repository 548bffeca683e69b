package courses

import "time"

type CourseResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Subtitle    string           `json:"subtitle"`
	Description string           `json:"description"`
	Content     string           `json:"content"`
	ImageURL    string           `json:"image_url"`
	Price       float64          `json:"price"`
	Teachers    []string         `json:"teachers"`
	Periods     []PeriodResponse `json:"periods"`
}

type PeriodResponse struct {
	ID                  string    `json:"id"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	TimeInfo            string    `json:"time_info"`
	TotalSpots          int       `json:"total_spots"`
	BookedSpots         int       `json:"booked_spots"`
	PendingReservations int       `json:"pending_reservations"`
	AvailableSpots      int       `json:"available_spots"`
}

func toCourseResponse(c *Course) CourseResponse {
	periods := make([]PeriodResponse, 0, len(c.Periods))
	for i := range c.Periods {
		p := &c.Periods[i]
		periods = append(periods, PeriodResponse{
			ID:                  p.ID.String(),
			StartDate:           p.StartDate,
			EndDate:             p.EndDate,
			TimeInfo:            p.TimeInfo,
			TotalSpots:          p.TotalSpots,
			BookedSpots:         p.BookedSpots,
			PendingReservations: p.PendingReservations,
			AvailableSpots:      p.AvailableSpots(),
		})
	}

	return CourseResponse{
		ID:          c.ID.String(),
		Title:       c.Title,
		Subtitle:    c.Subtitle,
		Description: c.Description,
		Content:     c.Content,
		ImageURL:    c.ImageURL,
		Price:       c.Price,
		Teachers:    c.Teachers,
		Periods:     periods,
	}
}

func toCourseResponses(courses []Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		responses = append(responses, toCourseResponse(&courses[i]))
	}
	return responses
}
