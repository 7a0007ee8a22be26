// Package formatter turns job records and user profiles into the text that gets embedded.
//
// Output is deterministic: identical input always yields byte-identical text, so a
// fingerprint of formatted texts identifies an index build.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justsurfingit/job-recommender/internal/models"
)

// Placeholder is written for every missing field.
const Placeholder = "N/A"

type field struct {
	label string
	value string
}

func render(fields []field) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(orNA(f.value))
		b.WriteString("\n")
	}
	return b.String()
}

// Job formats a structured posting.
func Job(job models.Job) string {
	return render([]field{
		{"Job ID", job.ID},
		{"Title", job.Name},
		{"Type", string(job.Type)},
		{"Company Name", job.Business.Name},
		{"Industry", job.Business.Industry},
		{"Job Description", job.Description},
		{"Vacancies", positiveInt(job.Vacancies)},
		{"Location", joinNonEmpty(", ", job.Location.City, job.Location.State, job.Location.Country)},
		{"Postal Code", job.Location.PostalCode},
		{"Salary", salary(job.SalaryRange)},
		{"Work Hours", span(job.WorkHours.StartTime, job.WorkHours.EndTime)},
		{"Work Days", strings.Join(nonEmpty(job.WorkDays.Days), ", ")},
		{"Experience (years)", positiveInt(job.Eligibility.ExperienceYears)},
		{"Education", strings.Join(nonEmpty(job.Eligibility.Education), ", ")},
		{"Skills", strings.Join(nonEmpty(job.Eligibility.Skills), ", ")},
	})
}

// Listing formats a flat spreadsheet posting.
func Listing(l models.JobListing) string {
	return render([]field{
		{"Company Name", l.CompanyName},
		{"Designation", l.Designation},
		{"Job Description", l.JobDescription},
		{"Location", l.Location},
		{"State", l.State},
		{"Min Exp", l.MinExp},
		{"Max Exp", l.MaxExp},
		{"Starting Salary", l.StartingSalary},
		{"Ending Salary", l.EndingSalary},
	})
}

// ProfileQuery builds the single query sentence used to search for a user.
func ProfileQuery(p models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User: %s, Age: %s, Gender: %s, Language: %s, Roles: %s, Location: %s.",
		orNA(strings.TrimSpace(p.Name)),
		orNA(positiveInt(p.Age)),
		orNA(strings.TrimSpace(p.Gender)),
		orNA(strings.TrimSpace(p.PreferredLanguage)),
		orNA(strings.Join(nonEmpty(p.PreferredJobRoles), ", ")),
		orNA(strings.TrimSpace(p.Location)),
	)
	if exp := nonEmpty(p.PastExperiences); len(exp) > 0 {
		fmt.Fprintf(&b, " Past Exp: %s.", strings.Join(exp, "; "))
	}
	if quals := nonEmpty(p.Qualifications); len(quals) > 0 {
		fmt.Fprintf(&b, " Quals: %s.", strings.Join(quals, "; "))
	}
	return b.String()
}

func orNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Placeholder
	}
	// keep one field per line
	return strings.Join(strings.Fields(s), " ")
}

func positiveInt(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func salary(r models.SalaryRange) string {
	if r.Min <= 0 && r.Max <= 0 {
		return ""
	}
	return fmt.Sprintf("%s - %s",
		strconv.FormatFloat(r.Min, 'f', -1, 64),
		strconv.FormatFloat(r.Max, 'f', -1, 64))
}

func span(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return ""
	}
	return orNA(start) + " - " + orNA(end)
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	return strings.Join(nonEmpty(parts), sep)
}
