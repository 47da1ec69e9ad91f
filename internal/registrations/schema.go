package registrations

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/grace-connect/backend/internal/models"
)

// RawInput is the untyped form payload as submitted. Which fields are
// required depends on attendee_type; the tag selects the variant.
type RawInput struct {
	AttendeeType           string `json:"attendee_type"`
	FullName               string `json:"full_name"`
	Email                  string `json:"email"`
	PhoneNumber            string `json:"phone_number"`
	Gender                 string `json:"gender"`
	Branch                 string `json:"branch"`
	AttendanceDate         string `json:"attendance_date"`
	EmergencyContactName   string `json:"emergency_contact_name"`
	EmergencyContactNumber string `json:"emergency_contact_number"`
}

// Input is a validated registration input. For the MEMBER variant the
// identity fields (full_name, email, gender, branch) are empty here;
// the workflow fills them from the resolved member record before the
// write, never from user input.
type Input struct {
	AttendeeType           models.AttendeeType
	FullName               string
	Email                  string
	PhoneNumber            string
	Gender                 string
	Branch                 string
	AttendanceDate         string
	EmergencyContactName   string
	EmergencyContactNumber string
}

// FieldErrors maps a field name to its validation messages. The caller
// surfaces these per field without aborting the whole form.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

func (e FieldErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// visitorInput is the VISITOR variant: the full self-supplied profile.
type visitorInput struct {
	FullName       string `json:"full_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	PhoneNumber    string `json:"phone_number" validate:"required,min=10"`
	Gender         string `json:"gender" validate:"required"`
	Branch         string `json:"branch" validate:"required"`
	AttendanceDate string `json:"attendance_date" validate:"required"`
}

// memberInput is the MEMBER variant: identity comes from resolution,
// so only the lookup key and the event choice are user-supplied.
type memberInput struct {
	PhoneNumber    string `json:"phone_number" validate:"required,min=10"`
	AttendanceDate string `json:"attendance_date" validate:"required"`
}

// Schema validates registration input against the variant selected by
// attendee_type. The valid attendance dates and branches are injected
// per event. Pure data validation, no I/O.
type Schema struct {
	validate        *validator.Validate
	attendanceDates map[string]struct{}
	branches        map[string]struct{}
}

// NewSchema creates a schema with the event's attendance dates and branches.
func NewSchema(attendanceDates, branches []string) *Schema {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	s := &Schema{
		validate:        v,
		attendanceDates: make(map[string]struct{}, len(attendanceDates)),
		branches:        make(map[string]struct{}, len(branches)),
	}
	for _, d := range attendanceDates {
		s.attendanceDates[d] = struct{}{}
	}
	for _, b := range branches {
		s.branches[b] = struct{}{}
	}
	return s
}

// Validate checks raw against the variant selected by its attendee_type
// tag. On failure the returned FieldErrors is non-empty and the Input
// is nil; on success every required field of the variant is populated.
func (s *Schema) Validate(raw RawInput) (*Input, FieldErrors) {
	errs := make(FieldErrors)

	t := models.AttendeeType(raw.AttendeeType)
	if !t.Valid() {
		errs.add("attendee_type", "Please select whether you are a visitor or a member")
		return nil, errs
	}

	switch t {
	case models.AttendeeVisitor:
		in := visitorInput{
			FullName:       raw.FullName,
			Email:          raw.Email,
			PhoneNumber:    raw.PhoneNumber,
			Gender:         raw.Gender,
			Branch:         raw.Branch,
			AttendanceDate: raw.AttendanceDate,
		}
		s.collect(in, errs)
		if raw.Branch != "" {
			if _, ok := s.branches[raw.Branch]; !ok {
				errs.add("branch", "Please select a branch")
			}
		}
	case models.AttendeeMember:
		in := memberInput{
			PhoneNumber:    raw.PhoneNumber,
			AttendanceDate: raw.AttendanceDate,
		}
		s.collect(in, errs)
	}

	if raw.AttendanceDate != "" {
		if _, ok := s.attendanceDates[raw.AttendanceDate]; !ok {
			errs.add("attendance_date", "Please select which day you will attend")
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	out := &Input{
		AttendeeType:           t,
		PhoneNumber:            raw.PhoneNumber,
		AttendanceDate:         raw.AttendanceDate,
		EmergencyContactName:   raw.EmergencyContactName,
		EmergencyContactNumber: raw.EmergencyContactNumber,
	}
	if t == models.AttendeeVisitor {
		out.FullName = raw.FullName
		out.Email = raw.Email
		out.Gender = raw.Gender
		out.Branch = raw.Branch
	}
	return out, nil
}

func (s *Schema) collect(in interface{}, errs FieldErrors) {
	err := s.validate.Struct(in)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.add("_", err.Error())
		return
	}
	for _, fe := range verrs {
		errs.add(fe.Field(), messageFor(fe.Field(), fe.Tag()))
	}
}

// messageFor returns the human-readable message for a failed field,
// matching the wording the registration form has always shown.
func messageFor(field, tag string) string {
	switch field {
	case "full_name":
		return "Full name is required"
	case "email":
		return "Please enter a valid email"
	case "phone_number":
		return "Please enter a valid phone number"
	case "gender":
		return "Please select a gender"
	case "branch":
		return "Please select a branch"
	case "attendance_date":
		return "Please select which day you will attend"
	}
	return field + " failed " + tag + " validation"
}
