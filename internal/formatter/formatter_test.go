package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/justsurfingit/job-recommender/internal/models"
)

func TestListing_AllFieldsPresent(t *testing.T) {
	got := Listing(models.JobListing{
		CompanyName:    "Acme Logistics",
		Designation:    "Delivery Driver",
		JobDescription: "Deliver parcels\nacross the city",
		Location:       "Bangalore",
		State:          "Karnataka",
		MinExp:         "1",
		MaxExp:         "3",
		StartingSalary: "15000",
		EndingSalary:   "22000",
	})

	want := "Company Name: Acme Logistics\n" +
		"Designation: Delivery Driver\n" +
		"Job Description: Deliver parcels across the city\n" +
		"Location: Bangalore\n" +
		"State: Karnataka\n" +
		"Min Exp: 1\n" +
		"Max Exp: 3\n" +
		"Starting Salary: 15000\n" +
		"Ending Salary: 22000\n"
	assert.Equal(t, want, got)
}

func TestListing_MissingFieldsUsePlaceholder(t *testing.T) {
	got := Listing(models.JobListing{Designation: "Welder"})

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	assert.Len(t, lines, 9)
	assert.Equal(t, "Designation: Welder", lines[1])
	for i, line := range lines {
		if i == 1 {
			continue
		}
		assert.True(t, strings.HasSuffix(line, ": "+Placeholder), "line %q", line)
	}
}

func TestJob_EmptyRecordNeverPanics(t *testing.T) {
	var got string
	assert.NotPanics(t, func() { got = Job(models.Job{}) })

	for _, line := range strings.Split(strings.TrimSuffix(got, "\n"), "\n") {
		assert.True(t, strings.HasSuffix(line, ": "+Placeholder), "line %q", line)
	}
}

func TestJob_Deterministic(t *testing.T) {
	job := models.Job{
		ID:          "job-1",
		Name:        "Helper",
		Type:        models.JobTypePartTime,
		Description: "Assist the store manager",
		Vacancies:   2,
		SalaryRange: models.SalaryRange{Min: 9000, Max: 12000.5},
		Business:    models.Business{Name: "Kirana Mart", Industry: "RetailAndEcommerce"},
		WorkHours:   models.WorkHours{StartTime: "0900", EndTime: "1800"},
		WorkDays:    models.WorkDays{Days: []string{"Mon", " ", "Tue"}},
		Eligibility: models.Eligibility{ExperienceYears: 1, Skills: []string{"billing"}},
		Location:    models.Location{City: "Bangalore", State: "KA"},
	}

	first := Job(job)
	assert.Equal(t, first, Job(job))
	assert.Contains(t, first, "Job ID: job-1\n")
	assert.Contains(t, first, "Salary: 9000 - 12000.5\n")
	assert.Contains(t, first, "Work Hours: 0900 - 1800\n")
	assert.Contains(t, first, "Work Days: Mon, Tue\n")
	assert.Contains(t, first, "Location: Bangalore, KA\n")
	assert.Contains(t, first, "Education: N/A\n")
}

func TestProfileQuery(t *testing.T) {
	p := models.UserProfile{
		Name:              "Ravi",
		Age:               27,
		Gender:            "male",
		PreferredLanguage: "Kannada",
		PreferredJobRoles: []string{"Driver", "Helper"},
		Location:          "Bangalore",
		PastExperiences:   []string{"Driver - 2 years"},
		Qualifications:    []string{"Driving License", "Class-X"},
	}

	assert.Equal(t,
		"User: Ravi, Age: 27, Gender: male, Language: Kannada, Roles: Driver, Helper, Location: Bangalore. "+
			"Past Exp: Driver - 2 years. Quals: Driving License; Class-X.",
		ProfileQuery(p))

	assert.Equal(t,
		"User: N/A, Age: N/A, Gender: N/A, Language: N/A, Roles: N/A, Location: N/A.",
		ProfileQuery(models.UserProfile{}))
}
