package models

import (
	"time"
)

type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Location struct {
	City        string       `json:"city"`
	State       string       `json:"state"`
	Country     string       `json:"country"`
	PostalCode  string       `json:"postal_code"`
	Address     string       `json:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type WorkHours struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type WorkDays struct {
	Days []string `json:"days"`
}

type Eligibility struct {
	Education       []string `json:"education"`
	ExperienceYears int      `json:"experience_years"`
	Skills          []string `json:"skills"`
}

type Business struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	PictureURLs []string `json:"picture_urls"`
	Description string   `json:"description"`
	GSTNumber   string   `json:"gst_index_number"`
	Location    Location `json:"location"`
	Industry    string   `json:"industry"`
}

// Job is a structured job posting as published by a business.
type Job struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Type           JobType     `json:"type"`
	Vacancies      int         `json:"vacancies"`
	SalaryRange    SalaryRange `json:"salary_range"`
	ApplicationIDs []string    `json:"application_ids"`
	Business       Business    `json:"business"`
	WorkHours      WorkHours   `json:"work_hours"`
	WorkDays       WorkDays    `json:"work_days"`
	Eligibility    Eligibility `json:"eligibility"`
	Location       Location    `json:"location"`
}

// JobListing is a flat posting row, as found in spreadsheet exports.
type JobListing struct {
	CompanyName    string `json:"Company_Name"`
	Designation    string `json:"Designation"`
	JobDescription string `json:"Job_Description"`
	Location       string `json:"Location"`
	State          string `json:"State"`
	MinExp         string `json:"Min_Exp"`
	MaxExp         string `json:"Max_Exp"`
	StartingSalary string `json:"Starting_Salary"`
	EndingSalary   string `json:"Ending_Salary"`
}

type UserProfile struct {
	Name              string   `json:"name" binding:"required"`
	Age               int      `json:"age"`
	Gender            string   `json:"gender"`
	PreferredLanguage string   `json:"preferred_language"`
	PreferredJobRoles []string `json:"preferred_job_roles"`
	Location          string   `json:"location"`
	PastExperiences   []string `json:"past_experiences,omitempty"`
	Qualifications    []string `json:"qualifications,omitempty"`
}

// RecommendationLog records the outcome of one recommendation request.
type RecommendationLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	RequestID     string    `gorm:"index" json:"request_id"`
	Route         string    `json:"route"`
	Query         string    `gorm:"type:text" json:"query"`
	JobsSubmitted int       `json:"jobs_submitted"`
	ResultsFound  int       `json:"results_found"`
	Outcome       string    `json:"outcome"`
}
