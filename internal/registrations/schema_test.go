package registrations

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grace-connect/backend/internal/models"
)

var (
	testDates    = []string{"Thursday, June 20, 2024", "Friday, June 21, 2024", "All Days"}
	testBranches = []string{"Central Branch", "East Branch"}
)

func testSchema() *Schema {
	return NewSchema(testDates, testBranches)
}

func validVisitor() RawInput {
	return RawInput{
		AttendeeType:   "VISITOR",
		FullName:       "Kofi Asante",
		Email:          "kofi@example.com",
		PhoneNumber:    "0244123456",
		Gender:         "Male",
		Branch:         "Central Branch",
		AttendanceDate: "All Days",
	}
}

func validMember() RawInput {
	return RawInput{
		AttendeeType:   "MEMBER",
		PhoneNumber:    "0244123456",
		AttendanceDate: "All Days",
	}
}

func TestValidate_VisitorAllFields(t *testing.T) {
	in, ferrs := testSchema().Validate(validVisitor())
	require.Empty(t, ferrs)
	require.Equal(t, models.AttendeeVisitor, in.AttendeeType)
	require.Equal(t, "Kofi Asante", in.FullName)
	require.Equal(t, "Central Branch", in.Branch)
}

func TestValidate_VisitorMissingFields(t *testing.T) {
	raw := validVisitor()
	raw.FullName = ""
	raw.Email = "not-an-email"
	raw.Gender = ""

	in, ferrs := testSchema().Validate(raw)
	require.Nil(t, in)
	require.Contains(t, ferrs["full_name"], "Full name is required")
	require.Contains(t, ferrs["email"], "Please enter a valid email")
	require.Contains(t, ferrs["gender"], "Please select a gender")
	// Valid fields carry no error entry.
	require.NotContains(t, ferrs, "phone_number")
	require.NotContains(t, ferrs, "branch")
}

func TestValidate_VisitorShortPhone(t *testing.T) {
	raw := validVisitor()
	raw.PhoneNumber = "024412"

	in, ferrs := testSchema().Validate(raw)
	require.Nil(t, in)
	require.Contains(t, ferrs["phone_number"], "Please enter a valid phone number")
}

func TestValidate_UnknownBranchAndDate(t *testing.T) {
	raw := validVisitor()
	raw.Branch = "Mars Branch"
	raw.AttendanceDate = "Sunday, June 23, 2024"

	in, ferrs := testSchema().Validate(raw)
	require.Nil(t, in)
	require.Contains(t, ferrs["branch"], "Please select a branch")
	require.Contains(t, ferrs["attendance_date"], "Please select which day you will attend")
}

func TestValidate_MemberVariantIgnoresIdentityFields(t *testing.T) {
	raw := validMember()
	// Identity fields supplied by the client are never trusted on the
	// member path; they neither fail validation nor pass through.
	raw.FullName = "Spoofed Name"
	raw.Email = "spoof@example.com"
	raw.Branch = "East Branch"

	in, ferrs := testSchema().Validate(raw)
	require.Empty(t, ferrs)
	require.Equal(t, models.AttendeeMember, in.AttendeeType)
	require.Empty(t, in.FullName)
	require.Empty(t, in.Email)
	require.Empty(t, in.Branch)
	require.Equal(t, "0244123456", in.PhoneNumber)
}

func TestValidate_MemberMissingPhone(t *testing.T) {
	raw := validMember()
	raw.PhoneNumber = ""

	in, ferrs := testSchema().Validate(raw)
	require.Nil(t, in)
	require.Contains(t, ferrs["phone_number"], "Please enter a valid phone number")
}

func TestValidate_InvalidAttendeeType(t *testing.T) {
	for _, typ := range []string{"", "GUEST", "visitor"} {
		raw := validVisitor()
		raw.AttendeeType = typ
		in, ferrs := testSchema().Validate(raw)
		require.Nil(t, in)
		require.Contains(t, ferrs, "attendee_type")
	}
}

func TestValidate_EmergencyContactOptional(t *testing.T) {
	raw := validVisitor()
	raw.EmergencyContactName = "Abena Asante"
	raw.EmergencyContactNumber = "0209876543"

	in, ferrs := testSchema().Validate(raw)
	require.Empty(t, ferrs)
	require.Equal(t, "Abena Asante", in.EmergencyContactName)

	raw.EmergencyContactName = ""
	raw.EmergencyContactNumber = ""
	in, ferrs = testSchema().Validate(raw)
	require.Empty(t, ferrs)
	require.Empty(t, in.EmergencyContactName)
}
